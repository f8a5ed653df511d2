// Package policy is the rules engine that reacts to decoded game-log
// events: teamkill handling, spawn-kill guards, kill/streak/multi-kill
// announcements, bomb-event resolution and team balance.
package policy

// Cause names the death-cause identifiers carried by Kill/Hit lines.
// The numeric IDs differ between the UrT 4.1 and 4.2/4.3 mods, so the
// engine resolves them through a CauseMap selected by mod version
// rather than hardcoding one table.
type Cause string

const (
	CauseWater        Cause = "MOD_WATER"
	CauseLava         Cause = "MOD_LAVA"
	CauseTelefrag     Cause = "UT_MOD_TELEFRAG"
	CauseFalling      Cause = "MOD_FALLING"
	CauseSuicide      Cause = "UT_MOD_SUICIDE"
	CauseTriggerHurt  Cause = "MOD_TRIGGER_HURT"
	CauseChangeTeam   Cause = "MOD_CHANGE_TEAM"
	CauseKnife        Cause = "UT_MOD_KNIFE"
	CauseKnifeThrown  Cause = "UT_MOD_KNIFE_THROWN"
	CauseBeretta      Cause = "UT_MOD_BERETTA"
	CauseDeagle       Cause = "UT_MOD_DEAGLE"
	CauseSpas         Cause = "UT_MOD_SPAS"
	CauseUMP45        Cause = "UT_MOD_UMP45"
	CauseMP5K         Cause = "UT_MOD_MP5K"
	CauseLR300        Cause = "UT_MOD_LR300"
	CauseG36          Cause = "UT_MOD_G36"
	CausePSG1         Cause = "UT_MOD_PSG1"
	CauseHK69         Cause = "UT_MOD_HK69"
	CauseBled         Cause = "UT_MOD_BLED"
	CauseKicked       Cause = "UT_MOD_KICKED"
	CauseHEGrenade    Cause = "UT_MOD_HEGRENADE"
	CauseSR8          Cause = "UT_MOD_SR8"
	CauseAK103        Cause = "UT_MOD_AK103"
	CauseSploded      Cause = "UT_MOD_SPLODED"
	CauseSlapped      Cause = "UT_MOD_SLAPPED"
	CauseSmited       Cause = "UT_MOD_SMITED"
	CauseBombed       Cause = "UT_MOD_BOMBED"
	CauseNuked        Cause = "UT_MOD_NUKED"
	CauseNegev        Cause = "UT_MOD_NEGEV"
	CauseHK69Hit      Cause = "UT_MOD_HK69_HIT"
	CauseM4           Cause = "UT_MOD_M4"
	CauseGlock        Cause = "UT_MOD_GLOCK"
	CauseColt1911     Cause = "UT_MOD_COLT1911"
	CauseMac11        Cause = "UT_MOD_MAC11"
	CauseFlag         Cause = "UT_MOD_FLAG"
	CauseGoomba       Cause = "UT_MOD_GOOMBA"
	CauseUnknown      Cause = "UNKNOWN"
)

// causesMod41 maps Kill causeIds for mod version 41 (UrT 4.1).
var causesMod41 = map[int]Cause{
	1: CauseWater, 3: CauseLava, 5: CauseTelefrag, 6: CauseFalling,
	7: CauseSuicide, 9: CauseTriggerHurt, 10: CauseChangeTeam,
	12: CauseKnife, 13: CauseKnifeThrown, 14: CauseBeretta, 15: CauseDeagle,
	16: CauseSpas, 17: CauseUMP45, 18: CauseMP5K, 19: CauseLR300,
	20: CauseG36, 21: CausePSG1, 22: CauseHK69, 23: CauseBled,
	24: CauseKicked, 25: CauseHEGrenade, 28: CauseSR8, 30: CauseAK103,
	31: CauseSploded, 32: CauseSlapped, 33: CauseBombed, 34: CauseNuked,
	35: CauseNegev, 37: CauseHK69Hit, 38: CauseM4, 39: CauseFlag,
	40: CauseGoomba,
}

// causesMod4x maps Kill causeIds for mod versions 42/43 (UrT 4.2+),
// which inserted UT_MOD_SMITED and shifted several ids by one.
var causesMod4x = map[int]Cause{
	1: CauseWater, 3: CauseLava, 5: CauseTelefrag, 6: CauseFalling,
	7: CauseSuicide, 9: CauseTriggerHurt, 10: CauseChangeTeam,
	12: CauseKnife, 13: CauseKnifeThrown, 14: CauseBeretta, 15: CauseDeagle,
	16: CauseSpas, 17: CauseUMP45, 18: CauseMP5K, 19: CauseLR300,
	20: CauseG36, 21: CausePSG1, 22: CauseHK69, 23: CauseBled,
	24: CauseKicked, 25: CauseHEGrenade, 28: CauseSR8, 30: CauseAK103,
	31: CauseSploded, 32: CauseSlapped, 33: CauseSmited, 34: CauseBombed,
	35: CauseNuked, 36: CauseNegev, 37: CauseHK69Hit, 38: CauseM4,
	39: CauseGlock, 40: CauseColt1911, 41: CauseMac11, 42: CauseFlag,
	43: CauseGoomba,
}

// CauseMap resolves numeric causeIds to Cause names for one loaded
// game's mod version.
type CauseMap struct {
	table map[int]Cause
}

// NewCauseMap selects the id table matching modVersion (41, 42 or 43).
// Unrecognised versions fall back to the 42/43 table, the common case.
func NewCauseMap(modVersion int) CauseMap {
	if modVersion == 41 {
		return CauseMap{table: causesMod41}
	}
	return CauseMap{table: causesMod4x}
}

// Resolve returns the Cause for id, or CauseUnknown.
func (m CauseMap) Resolve(id int) Cause {
	if c, ok := m.table[id]; ok {
		return c
	}
	return CauseUnknown
}

var suicideCauses = map[Cause]bool{
	CauseSuicide: true, CauseFalling: true, CauseWater: true, CauseLava: true,
	CauseTriggerHurt: true, CauseSploded: true, CauseSlapped: true, CauseSmited: true,
}

var selfInflictedWeapons = map[Cause]bool{
	CauseHEGrenade: true, CauseHK69: true, CauseNuked: true, CauseBombed: true,
}

// IsSuicideCause reports whether cause alone always means a suicide,
// regardless of whether killer and victim are the same slot.
func IsSuicideCause(c Cause) bool { return suicideCauses[c] }

// IsSelfInflictedWeapon reports whether cause only counts as a suicide
// when the killer and victim are the same player.
func IsSelfInflictedWeapon(c Cause) bool { return selfInflictedWeapons[c] }
