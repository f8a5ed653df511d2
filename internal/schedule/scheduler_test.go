package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spunkybot/urtadmind/internal/game"
)

type fakeStore struct{ purged int64 }

func (f *fakeStore) PurgeExpiredBanPoints(ctx context.Context) (int64, error) { return f.purged, nil }

type fakeStatus struct{ pings map[int]int }

func (f *fakeStatus) PingForSlot(slot int) (int, bool) {
	p, ok := f.pings[slot]
	return p, ok
}

type fakeActions struct {
	kicked     map[int]string
	broadcasts []string
	bigtexts   []string
	raws       []string
}

func newFakeActions() *fakeActions {
	return &fakeActions{kicked: make(map[int]string)}
}
func (f *fakeActions) Kick(slot int, reason string) { f.kicked[slot] = reason }
func (f *fakeActions) Broadcast(msg string)         { f.broadcasts = append(f.broadcasts, msg) }
func (f *fakeActions) BigText(msg string)            { f.bigtexts = append(f.bigtexts, msg) }
func (f *fakeActions) Raw(cmd string)                { f.raws = append(f.raws, cmd) }

func withLockInline(fn func()) { fn() }

func TestPlayerPassExpiresWarningsAndKicks(t *testing.T) {
	g := game.NewGame()
	p := game.NewPlayer(1, "GUID1", "Alice", "1.1.1.1")
	g.AddPlayer(p, nil)

	now := time.Now()
	p.AddWarning("w1", true, now.Add(-30*time.Minute))
	p.AddWarning("w2", true, now.Add(-30*time.Minute))
	p.AddWarning("w3", true, now.Add(-30*time.Minute))

	stale := game.NewPlayer(2, "GUID2", "Bob", "1.1.1.2")
	g.AddPlayer(stale, nil)
	stale.AddWarning("old1", true, now.Add(-2*time.Hour))
	stale.AddWarning("old2", true, now.Add(-2*time.Hour))
	stale.AddWarning("old3", true, now.Add(-2*time.Hour))

	actions := newFakeActions()
	cfg := PlayerTasksConfig{
		WarnExpiration:    time.Hour,
		WarnKickThreshold: 2,
		KickAdminCeiling:  game.RoleAdmin,
	}
	s := New(g, &fakeStore{}, nil, actions, cfg, withLockInline)
	s.playerPass(now)

	require.Equal(t, "w3", actions.kicked[p.Slot])
	require.Empty(t, stale.Warnings)
	_, staleKicked := actions.kicked[stale.Slot]
	require.False(t, staleKicked)
}

func TestPlayerPassPingWarning(t *testing.T) {
	g := game.NewGame()
	p := game.NewPlayer(1, "GUID1", "Alice", "1.1.1.1")
	g.AddPlayer(p, nil)

	actions := newFakeActions()
	cfg := PlayerTasksConfig{MaxPing: 150, AdminImmunity: game.RoleAdmin}
	status := &fakeStatus{pings: map[int]int{1: 300}}
	s := New(g, &fakeStore{}, status, actions, cfg, withLockInline)
	s.playerPass(time.Now())

	require.Contains(t, p.Warnings, "fix your ping")
	require.Equal(t, 300, p.PingValue)
}

func TestExpandMagicSubstitutesNextmap(t *testing.T) {
	g := game.NewGame()
	g.NextMapname = "ut4_casa"
	s := New(g, &fakeStore{}, nil, newFakeActions(), PlayerTasksConfig{}, withLockInline)

	out := s.expandMagic("next up: @nextmap")
	require.Equal(t, "next up: ut4_casa", out)
}

func TestEmitNextRuleRotates(t *testing.T) {
	g := game.NewGame()
	actions := newFakeActions()
	s := New(g, &fakeStore{}, nil, actions, PlayerTasksConfig{}, withLockInline)
	s.LoadRules([]string{"rule one", "rule two"}, "chat")

	s.emitNextRule()
	s.emitNextRule()
	s.emitNextRule()

	require.Equal(t, []string{"rule one", "rule two", "rule one"}, actions.broadcasts)
}
