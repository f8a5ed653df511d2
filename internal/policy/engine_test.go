package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spunkybot/urtadmind/internal/game"
	"github.com/spunkybot/urtadmind/internal/logfeed"
)

type recordingActions struct {
	broadcasts []string
	tells      map[int][]string
	kicked     map[int]string
	smited     []int
	banned     []string
}

func newRecordingActions() *recordingActions {
	return &recordingActions{tells: make(map[int][]string), kicked: make(map[int]string)}
}

func (r *recordingActions) Broadcast(msg string) { r.broadcasts = append(r.broadcasts, msg) }
func (r *recordingActions) Tell(slot int, msg string) {
	r.tells[slot] = append(r.tells[slot], msg)
}
func (r *recordingActions) Kick(slot int, reason string) { r.kicked[slot] = reason }
func (r *recordingActions) Smite(slot int)               { r.smited = append(r.smited, slot) }
func (r *recordingActions) Ban(ctx context.Context, guid, name, ip string, d time.Duration, reason string) error {
	r.banned = append(r.banned, guid)
	return nil
}

func allSpam() SpamConfig {
	return SpamConfig{Announce: true, FirstBlood: true, MultiKill: true, Streak: true, Headshot: true, Awards: true}
}

func newTestEngine(actions *recordingActions, cfg Config) (*game.Game, *Engine) {
	g := game.NewGame()
	announcer := NewAnnouncer(actions, allSpam())
	return g, NewEngine(g, actions, announcer, cfg)
}

// TestTeamkillLadder implements the literal scenario: A kills four
// distinct red teammates with UT_MOD_M4; the fourth kill crosses the
// distinct-victim limit and triggers a ban+kick instead of a warning.
func TestTeamkillLadder(t *testing.T) {
	actions := newRecordingActions()
	g, e := newTestEngine(actions, Config{TeamkillAutokick: true})

	a := game.NewPlayer(1, "GUIDA", "Alice", "1.1.1.1")
	a.Team = game.TeamRed
	g.AddPlayer(a, nil)

	victims := make([]*game.Player, 4)
	for i := range victims {
		v := game.NewPlayer(2+i, "G", "V", "1.1.1.1")
		v.Team = game.TeamRed
		g.AddPlayer(v, nil)
		victims[i] = v
	}

	now := time.Now()
	m4CauseID := 0
	for id, c := range causesMod4x {
		if c == CauseM4 {
			m4CauseID = id
		}
	}
	require.NotZero(t, m4CauseID)

	for _, v := range victims {
		e.HandleKill(context.Background(), logfeed.KillEvent{Killer: a.Slot, Victim: v.Slot, Cause: m4CauseID}, now)
	}

	require.Len(t, actions.banned, 1)
	require.Equal(t, "GUIDA", actions.banned[0])
	require.Equal(t, "team killing over limit", actions.kicked[a.Slot])
}

// TestTeamkillLadderSkipsBotVictimByDefault implements the scenario:
// A teamkills a bot with bots_allowed off (the default) — the ladder
// must not warn/kick for a teamkill against a bot victim.
func TestTeamkillLadderSkipsBotVictimByDefault(t *testing.T) {
	actions := newRecordingActions()
	g, e := newTestEngine(actions, Config{TeamkillAutokick: true})

	a := game.NewPlayer(1, "GUIDA", "Alice", "1.1.1.1")
	a.Team = game.TeamRed
	g.AddPlayer(a, nil)

	bot := game.NewPlayer(2, "BOT2", "Zeta", "")
	bot.Team = game.TeamRed
	g.AddPlayer(bot, nil)

	now := time.Now()
	m4CauseID := 0
	for id, c := range causesMod4x {
		if c == CauseM4 {
			m4CauseID = id
		}
	}
	require.NotZero(t, m4CauseID)

	e.HandleKill(context.Background(), logfeed.KillEvent{Killer: a.Slot, Victim: bot.Slot, Cause: m4CauseID}, now)

	require.Empty(t, actions.tells[bot.Slot])
	require.Empty(t, actions.kicked)
	require.Empty(t, actions.banned)
	require.Equal(t, 1, a.TeamKills)
}

// TestTeamkillLadderAppliesToBotVictimWhenBotsAllowed implements the
// scenario: same teamkill against a bot, but bots_allowed is on — the
// ladder now applies to the bot victim exactly as it would to a human.
func TestTeamkillLadderAppliesToBotVictimWhenBotsAllowed(t *testing.T) {
	actions := newRecordingActions()
	g, e := newTestEngine(actions, Config{TeamkillAutokick: true, BotsAllowed: true})

	a := game.NewPlayer(1, "GUIDA", "Alice", "1.1.1.1")
	a.Team = game.TeamRed
	g.AddPlayer(a, nil)

	bot := game.NewPlayer(2, "BOT2", "Zeta", "")
	bot.Team = game.TeamRed
	g.AddPlayer(bot, nil)

	now := time.Now()
	m4CauseID := 0
	for id, c := range causesMod4x {
		if c == CauseM4 {
			m4CauseID = id
		}
	}
	require.NotZero(t, m4CauseID)

	e.HandleKill(context.Background(), logfeed.KillEvent{Killer: a.Slot, Victim: bot.Slot, Cause: m4CauseID}, now)

	require.Len(t, actions.tells[bot.Slot], 1)
	require.Contains(t, actions.tells[bot.Slot][0], "!forgive")
}

// TestSpawnKillSmite implements the scenario: B spawns at t, A kills B
// 0.5s later with spawnkill_warn_time=3s and instant_kill_spawnkiller
// on — A is smited rather than warned.
func TestSpawnKillSmite(t *testing.T) {
	actions := newRecordingActions()
	g, e := newTestEngine(actions, Config{
		SpawnkillAutokick:      true,
		SpawnkillWarnTime:      3 * time.Second,
		InstantKillSpawnkiller: true,
	})
	g.ModVersion = 42

	a := game.NewPlayer(1, "GUIDA", "Alice", "1.1.1.1")
	a.Team = game.TeamRed
	b := game.NewPlayer(2, "GUIDB", "Bob", "2.2.2.2")
	b.Team = game.TeamBlue
	g.AddPlayer(a, nil)
	g.AddPlayer(b, nil)

	start := time.Now()
	b.RespawnTime = start
	killTime := start.Add(500 * time.Millisecond)

	var causeID int
	for id, c := range causesMod4x {
		if c == CauseDeagle {
			causeID = id
		}
	}

	e.HandleKill(context.Background(), logfeed.KillEvent{Killer: a.Slot, Victim: b.Slot, Cause: causeID}, killTime)

	require.Contains(t, actions.smited, a.Slot)
	require.Empty(t, a.Warnings)
}

func TestSpawnKillWarnWithoutInstant(t *testing.T) {
	actions := newRecordingActions()
	g, e := newTestEngine(actions, Config{
		SpawnkillAutokick: true,
		SpawnkillWarnTime: 3 * time.Second,
	})
	g.ModVersion = 42

	a := game.NewPlayer(1, "GUIDA", "Alice", "1.1.1.1")
	a.Team = game.TeamRed
	b := game.NewPlayer(2, "GUIDB", "Bob", "2.2.2.2")
	b.Team = game.TeamBlue
	g.AddPlayer(a, nil)
	g.AddPlayer(b, nil)

	start := time.Now()
	b.RespawnTime = start

	var causeID int
	for id, c := range causesMod4x {
		if c == CauseDeagle {
			causeID = id
		}
	}
	e.HandleKill(context.Background(), logfeed.KillEvent{Killer: a.Slot, Victim: b.Slot, Cause: causeID}, start.Add(time.Second))

	require.Empty(t, actions.smited)
	require.Equal(t, []string{"stop spawn killing"}, a.Warnings)
}

func TestSuicideDoesNotCountAsKill(t *testing.T) {
	actions := newRecordingActions()
	g, e := newTestEngine(actions, Config{})

	a := game.NewPlayer(1, "GUIDA", "Alice", "1.1.1.1")
	g.AddPlayer(a, nil)

	var fallingID int
	for id, c := range causesMod4x {
		if c == CauseFalling {
			fallingID = id
		}
	}
	e.HandleKill(context.Background(), logfeed.KillEvent{Killer: -1, Victim: a.Slot, Cause: fallingID}, time.Now())

	require.Equal(t, 1, a.DBSuicides)
	require.Equal(t, 0, a.Kills)
}

func TestBombDefuseTriggersBalanceCheck(t *testing.T) {
	actions := newRecordingActions()
	g, e := newTestEngine(actions, Config{})
	g.ModVersion = 43

	var joinOrder []*game.Player
	for i := 0; i < 3; i++ {
		p := game.NewPlayer(i, "G", "P", "1.1.1.1")
		p.Team = game.TeamRed
		g.AddPlayer(p, nil)
		joinOrder = append(joinOrder, p)
	}
	blue := game.NewPlayer(10, "G", "P", "1.1.1.1")
	blue.Team = game.TeamBlue
	g.AddPlayer(blue, nil)

	e.HandleBomb(context.Background(), logfeed.BombEvent{Action: logfeed.BombDefused, Slot: blue.Slot})

	red, bluec := g.TeamCounts()
	require.LessOrEqual(t, abs(red-bluec), 1)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
