package game

import (
	"strings"
	"time"
)

// WorldSlot is the synthetic "World" player's fixed slot number.
const WorldSlot = 1022

// TeamLock is a per-player override forcing ClientUserinfoChanged back
// to a fixed team; nil/"" means unlocked.
type TeamLock string

const (
	TeamLockNone TeamLock = ""
	TeamLockRed  TeamLock = "red"
	TeamLockBlue TeamLock = "blue"
	TeamLockSpec TeamLock = "spectator"
)

// Team is the in-game team assignment, as reported by
// ClientUserinfoChanged's \t\ value.
type Team int

const (
	TeamGreen Team = iota
	TeamRed
	TeamBlue
	TeamSpectator
)

// MultiKillWindow tracks the rolling multi-kill timer.
type MultiKillWindow struct {
	LastKillTime time.Time
	Count        int
}

// HitZones counts non-headshot hit locations.
type HitZones struct {
	Body int
	Arms int
	Legs int
}

// Player is the live per-slot record. Slot 1022 ("World")
// is always present and synthetic.
type Player struct {
	Slot      int
	Guid      string
	Authname  string
	Address   string
	Name      string
	Team      Team
	Connected bool

	// session stats
	Kills            int
	Deaths           int
	Headshots        int
	AllHits          int
	Hits             HitZones
	HEKills          int
	KnifeKills       int
	KillingStreak    int
	MaxKillStreak    int
	LosingStreak     int
	MultiKill        MultiKillWindow
	RespawnTime      time.Time
	Alive            bool

	// CTF
	FlagsCaptured           int
	FlagsReturned           int
	FastestFlagCaptureSecs  float64

	// Bomb
	IsBombHolder     bool
	BombCarrierKills int
	KillsWithBomb    int
	BombPlanted      int
	BombDefused      int

	// Freeze
	Freezes   int
	Thawouts  int

	TeamKills int // team kills since connect

	// persistent mirror; no event handler writes these back to the store
	DBKills         int
	DBDeaths        int
	DBHeadshots     int
	DBTKCount       int
	DBTeamDeath     int
	DBMaxKillStreak int
	DBSuicides      int
	AdminRole       Role
	FirstSeen       time.Time
	LastVisit       time.Time
	NumPlayed       int

	// moderation
	Warnings      []string
	LastWarnTime  time.Time
	TKVictims     []int // slots of players this player team-killed
	KilledMe      []int // slots of players who team-killed this player
	Grudged       map[int]bool
	PingValue     int
	BanID         int64
	WelcomeShown  bool
	TeamLock      TeamLock
}

// NewPlayer constructs a freshly-connected slot record.
func NewPlayer(slot int, guid, name, address string) *Player {
	return &Player{
		Slot:    slot,
		Guid:    guid,
		Name:    CanonicalizeName(name),
		Address: address,
		Grudged: make(map[int]bool),
		Alive:   true,
	}
}

// NewWorldPlayer builds the fixed, immutable World sentinel for slot
// 1022.
func NewWorldPlayer() *Player {
	return &Player{
		Slot:    WorldSlot,
		Guid:    "WORLD",
		Name:    "World",
		Address: "0.0.0.0",
		Grudged: make(map[int]bool),
	}
}

// IsWorld reports whether this player is the synthetic World sentinel.
func (p *Player) IsWorld() bool { return p.Slot == WorldSlot }

// IsBot reports whether this player is a game bot, identified by the
// synthetic "BOT<slot>" guid ClientUserinfo synthesises when cl_guid
// is absent.
func (p *Player) IsBot() bool { return strings.HasPrefix(p.Guid, "BOT") }

// SetName canonicalises and assigns the player's display name.
func (p *Player) SetName(raw string) {
	p.Name = CanonicalizeName(raw)
}

// Kill records a frag by this player, applying the multi-kill window
// and streak bookkeeping.
func (p *Player) Kill(now time.Time) {
	p.KillingStreak++
	p.Kills++
	p.DBKills++
	p.LosingStreak = 0
	if !p.MultiKill.LastKillTime.IsZero() && now.Sub(p.MultiKill.LastKillTime) < 5*time.Second {
		p.MultiKill.Count++
	} else {
		p.MultiKill.Count = 1
	}
	p.MultiKill.LastKillTime = now
}

// Die records this player's death, folding the streak into
// MaxKillStreak before resetting it.
func (p *Player) Die() {
	if p.KillingStreak > p.MaxKillStreak {
		p.MaxKillStreak = p.KillingStreak
	}
	p.KillingStreak = 0
	p.Deaths++
	p.DBDeaths++
	p.LosingStreak++
	p.MultiKill = MultiKillWindow{}
}

// Suicide records a self-inflicted death.
func (p *Player) Suicide() {
	p.DBSuicides++
}

// Headshot records a headshot hit.
func (p *Player) Headshot() {
	p.Headshots++
	p.DBHeadshots++
}

// TeamKill records this player teamkilling someone.
func (p *Player) TeamKill() {
	p.TeamKills++
	p.DBTKCount++
}

// TeamDeath records this player being teamkilled.
func (p *Player) TeamDeath() {
	p.DBTeamDeath++
}

// AddTKVictim appends victimSlot to this player's TK-victim list
// (duplicates allowed).
func (p *Player) AddTKVictim(victimSlot int) {
	p.TKVictims = append(p.TKVictims, victimSlot)
}

// AddKilledMe appends killerSlot to the killed-me list.
func (p *Player) AddKilledMe(killerSlot int) {
	p.KilledMe = append(p.KilledMe, killerSlot)
}

// Forgive removes every occurrence of killerSlot from KilledMe and one
// "stop team killing" warning from the killer's list. killer is the
// Player record of killerSlot.
func (p *Player) Forgive(killerSlot int, killer *Player) {
	p.KilledMe = removeAll(p.KilledMe, killerSlot)
	if killer != nil {
		killer.clearOneWarning("stop team killing")
	}
}

// Grudge marks killerSlot as grudged (never auto-forgiven) and then
// forgives the outstanding TK the same way Forgive does.
func (p *Player) Grudge(killerSlot int, killer *Player) {
	p.Grudged[killerSlot] = true
	p.Forgive(killerSlot, killer)
}

// AddWarning appends text to the warning list; when timer is true,
// LastWarnTime is reset to now.
func (p *Player) AddWarning(text string, timer bool, now time.Time) {
	p.Warnings = append(p.Warnings, text)
	if timer {
		p.LastWarnTime = now
	}
}

// ClearWarning empties all warning state and TK bookkeeping. The
// caller is responsible for also purging the guid's non-expired ban
// points via the store.
func (p *Player) ClearWarning() {
	p.Warnings = nil
	p.TKVictims = nil
	p.KilledMe = nil
	p.LastWarnTime = time.Time{}
}

// ClearSpecificWarning removes every occurrence of text.
func (p *Player) ClearSpecificWarning(text string) {
	kept := p.Warnings[:0]
	for _, w := range p.Warnings {
		if w != text {
			kept = append(kept, w)
		}
	}
	p.Warnings = kept
}

func (p *Player) clearOneWarning(text string) {
	for i, w := range p.Warnings {
		if w == text {
			p.Warnings = append(p.Warnings[:i], p.Warnings[i+1:]...)
			return
		}
	}
}

// ClearLastWarning pops the most recent warning: when the list becomes
// empty LastWarnTime is pushed back 60s, and if the removed warning was
// "stop team killing" one TK victim is also popped.
func (p *Player) ClearLastWarning() {
	if len(p.Warnings) == 0 {
		return
	}
	last := p.Warnings[len(p.Warnings)-1]
	p.Warnings = p.Warnings[:len(p.Warnings)-1]
	if len(p.Warnings) == 0 {
		p.LastWarnTime = p.LastWarnTime.Add(-60 * time.Second)
	}
	if last == "stop team killing" && len(p.TKVictims) > 0 {
		p.TKVictims = p.TKVictims[:len(p.TKVictims)-1]
	}
}

// AddHighPing appends the ping warning without a timer and stores the
// observed value.
func (p *Player) AddHighPing(value int) {
	p.Warnings = append(p.Warnings, "fix your ping")
	p.PingValue = value
}

// WarningActive reports whether a warning added at LastWarnTime is
// still within warnExpiration.
func (p *Player) WarningActive(warnExpiration time.Duration, now time.Time) bool {
	if len(p.Warnings) == 0 {
		return false
	}
	return p.LastWarnTime.Add(warnExpiration).After(now)
}

// ExpireWarnings clears the warning list if it has gone stale, per the
// scheduler's per-player pass.
func (p *Player) ExpireWarnings(warnExpiration time.Duration, now time.Time) {
	if len(p.Warnings) > 0 && !p.WarningActive(warnExpiration, now) {
		p.ClearWarning()
	}
}

// RegisterUserDB marks the player as registered at role and suppresses
// the welcome message for the remainder of the session.
func (p *Player) RegisterUserDB(role Role) {
	p.AdminRole = role
	p.WelcomeShown = true
}

func removeAll(list []int, v int) []int {
	kept := list[:0]
	for _, item := range list {
		if item != v {
			kept = append(kept, item)
		}
	}
	return kept
}
