package logfeed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLineInitGame(t *testing.T) {
	raw := ` 0:00 InitGame: \g_gametype\7\g_gear\KQ\g_modversion\4.3.4\mapname\ut4_dust2_v2`
	ev, err := ParseLine(raw)
	require.NoError(t, err)
	require.Equal(t, EventInitGame, ev.Type)

	info := ParseInitGame(ev.Payload)
	require.Equal(t, 7, info.GameType)
	require.Equal(t, 43, info.ModVersion)
	require.Equal(t, "KQ", info.DefaultGear)
	require.Equal(t, "ut4_dust2_v2", info.Mapname)
}

func TestParseLineBombProse(t *testing.T) {
	ev, err := ParseLine(" 2:15 Bomb was planted by 3!")
	require.NoError(t, err)
	require.Equal(t, EventBomb, ev.Type)

	bomb, err := ParseBomb(ev.Payload)
	require.NoError(t, err)
	require.Equal(t, BombPlanted, bomb.Action)
	require.Equal(t, 3, bomb.Slot)
}

func TestParseLinePop(t *testing.T) {
	ev, err := ParseLine(" 2:20 Pop")
	require.NoError(t, err)
	require.Equal(t, EventPop, ev.Type)
}

func TestParseLineMalformed(t *testing.T) {
	_, err := ParseLine("garbage with no timestamp")
	require.Error(t, err)
}

func TestParseClientUserinfo(t *testing.T) {
	payload := `5 \name\Alice\ip\1.2.3.4:27960\cl_guid\ABCDEF0123456789ABCDEF0123456789`
	info, err := ParseClientUserinfo(payload)
	require.NoError(t, err)
	require.Equal(t, 5, info.Slot)
	require.Equal(t, "Alice", info.Name)
	require.Equal(t, "1.2.3.4", info.Address)
	require.Equal(t, "ABCDEF0123456789ABCDEF0123456789", info.Guid)
}

func TestParseClientUserinfoBotGuid(t *testing.T) {
	payload := `9 \name\BotOne\ip\0.0.0.0:0`
	info, err := ParseClientUserinfo(payload)
	require.NoError(t, err)
	require.Equal(t, "BOT9", info.Guid)
}

func TestParseClientUserinfoChanged(t *testing.T) {
	info, err := ParseClientUserinfoChanged(`5 \t\1\n\Alice`)
	require.NoError(t, err)
	require.Equal(t, 5, info.Slot)
	require.Equal(t, 1, info.Team)
	require.Equal(t, "Alice", info.Name)
}

func TestParseKill(t *testing.T) {
	kv, err := ParseKill("5 3 7: Alice killed Bob by UT_MOD_HEGRENADE")
	require.NoError(t, err)
	require.Equal(t, KillEvent{Killer: 5, Victim: 3, Cause: 7}, kv)
}

func TestParseKillWorldKiller(t *testing.T) {
	kv, err := ParseKill("-1 3 19: <world> killed Bob by MOD_FALLING")
	require.NoError(t, err)
	require.Equal(t, -1, kv.Killer)
}

func TestParseHit(t *testing.T) {
	hv, err := ParseHit("3 5 2 1: Alice hit Bob in the head")
	require.NoError(t, err)
	require.Equal(t, HitEvent{Victim: 3, Hitter: 5, Zone: 2, Weapon: 1}, hv)
}

func TestParseFlag(t *testing.T) {
	fv, err := ParseFlag("5 2: Alice captured the flag")
	require.NoError(t, err)
	require.Equal(t, FlagEvent{Slot: 5, Action: 2}, fv)
}

func TestParseFlagCaptureTime(t *testing.T) {
	slot, ms, err := ParseFlagCaptureTime("5: 34210")
	require.NoError(t, err)
	require.Equal(t, 5, slot)
	require.Equal(t, 34210, ms)
}

func TestParseSay(t *testing.T) {
	sv, err := ParseSay("5 Alice: !help")
	require.NoError(t, err)
	require.Equal(t, SayEvent{Slot: 5, Name: "Alice", Text: "!help"}, sv)
}

func TestScanLinesSkipsMalformed(t *testing.T) {
	log := strings.Join([]string{
		` 0:00 InitGame: \g_gametype\7\g_gear\KQ\g_modversion\43\mapname\ut4_dust2_v2`,
		`this line has no timestamp and should be skipped`,
		` 0:05 ClientBegin: 5`,
	}, "\n")

	var types []EventType
	err := ScanLines(strings.NewReader(log), func(ev Event) { types = append(types, ev.Type) })
	require.NoError(t, err)
	require.Equal(t, []EventType{EventInitGame, EventClientBegin}, types)
}
