package commands

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spunkybot/urtadmind/internal/boterr"
	"github.com/spunkybot/urtadmind/internal/game"
)

type fakeOffline struct{}

func (fakeOffline) LookupOffline(id int64) (*game.OfflinePlayer, bool) { return nil, false }

type fakeStore struct {
	roles map[string]int
}

func newFakeStore() *fakeStore { return &fakeStore{roles: make(map[string]int)} }

func (f *fakeStore) RegisterUser(ctx context.Context, guid, name string, role int) error {
	f.roles[guid] = role
	return nil
}
func (f *fakeStore) SetAdminRole(ctx context.Context, guid string, role int) error {
	f.roles[guid] = role
	return nil
}
func (f *fakeStore) HasHeadAdmin(ctx context.Context) (bool, error) { return false, nil }
func (f *fakeStore) LookupXLRStats(ctx context.Context, guid string) (*XLRStats, error) {
	return &XLRStats{Kills: 10, Deaths: 5, Headshots: 2, TeamKills: 1}, nil
}
func (f *fakeStore) Unban(ctx context.Context, id int64) error { return nil }
func (f *fakeStore) AddBanPoint(ctx context.Context, guid, pointType string, duration time.Duration) (int, error) {
	return 0, nil
}
func (f *fakeStore) ClearBanPoints(ctx context.Context, guid string) error { return nil }
func (f *fakeStore) LookupIdentity(ctx context.Context, guid string) (*Identity, error) {
	return nil, nil
}
func (f *fakeStore) SearchPlayers(ctx context.Context, query string, limit int) ([]Identity, error) {
	return nil, nil
}
func (f *fakeStore) LookupActiveBan(ctx context.Context, guid, ip string) (*BanSummary, error) {
	return nil, nil
}
func (f *fakeStore) ListActiveBans(ctx context.Context, limit int) ([]BanSummary, error) {
	return nil, nil
}

type fakeActions struct {
	kicked map[int]string
	banned []string
	raws   []string
	tells  map[int][]string
}

func newFakeActions() *fakeActions {
	return &fakeActions{kicked: make(map[int]string), tells: make(map[int][]string)}
}
func (f *fakeActions) Tell(slot int, msg string)      { f.tells[slot] = append(f.tells[slot], msg) }
func (f *fakeActions) Broadcast(msg string)            {}
func (f *fakeActions) Kick(slot int, reason string)    { f.kicked[slot] = reason }
func (f *fakeActions) Smite(slot int)                  {}
func (f *fakeActions) Raw(cmd string)                  { f.raws = append(f.raws, cmd) }
func (f *fakeActions) Ban(ctx context.Context, guid, name, ip string, d time.Duration, reason string) error {
	f.banned = append(f.banned, guid)
	return nil
}

// TestResolveTargetAmbiguous implements the literal scenario: Players
// {10: "Alice", 11: "alicia"}, resolving "Ali" is ambiguous and lists
// both, while resolving the exact slot "10" hits Alice directly.
func TestResolveTargetAmbiguous(t *testing.T) {
	g := game.NewGame()
	alice := game.NewPlayer(10, "GA", "Alice", "1.1.1.1")
	alicia := game.NewPlayer(11, "GB", "alicia", "1.1.1.2")
	g.AddPlayer(alice, nil)
	g.AddPlayer(alicia, nil)

	_, candidates, err := ResolveTarget(g, fakeOffline{}, "Ali")
	require.ErrorIs(t, err, boterr.ErrTargetAmbiguous)
	require.ElementsMatch(t, []string{"Alice", "alicia"}, candidates)

	target, _, err := ResolveTarget(g, fakeOffline{}, "10")
	require.NoError(t, err)
	require.Equal(t, "Alice", target.TargetName())
}

func TestDispatchPermissionDenied(t *testing.T) {
	g := game.NewGame()
	caller := game.NewPlayer(1, "GA", "Alice", "1.1.1.1")
	g.AddPlayer(caller, nil)
	victim := game.NewPlayer(2, "GB", "Bob", "1.1.1.2")
	g.AddPlayer(victim, nil)

	actions := newFakeActions()
	d := New(g, fakeOffline{}, newFakeStore(), actions, Config{})

	reply := d.Dispatch(context.Background(), caller, "!kick Bob griefing")
	require.Equal(t, "you do not have permission to use this command", reply)
	require.Empty(t, actions.kicked)
}

func TestDispatchKickHappyPath(t *testing.T) {
	g := game.NewGame()
	caller := game.NewPlayer(1, "GA", "Alice", "1.1.1.1")
	caller.AdminRole = game.RoleAdmin
	g.AddPlayer(caller, nil)
	victim := game.NewPlayer(2, "GB", "Bob", "1.1.1.2")
	g.AddPlayer(victim, nil)

	actions := newFakeActions()
	d := New(g, fakeOffline{}, newFakeStore(), actions, Config{})

	reply := d.Dispatch(context.Background(), caller, "!kick Bob griefing")
	require.Equal(t, "kicked Bob: griefing", reply)
	require.Equal(t, "griefing", actions.kicked[victim.Slot])
}

func TestDispatchCannotTargetSelf(t *testing.T) {
	g := game.NewGame()
	caller := game.NewPlayer(1, "GA", "Alice", "1.1.1.1")
	caller.AdminRole = game.RoleAdmin
	g.AddPlayer(caller, nil)

	d := New(g, fakeOffline{}, newFakeStore(), newFakeActions(), Config{})
	reply := d.Dispatch(context.Background(), caller, "!kick Alice oops")
	require.Equal(t, "you cannot target yourself with this command", reply)
}

func TestDispatchCannotTargetEqualAdmin(t *testing.T) {
	g := game.NewGame()
	caller := game.NewPlayer(1, "GA", "Alice", "1.1.1.1")
	caller.AdminRole = game.RoleAdmin
	g.AddPlayer(caller, nil)
	peer := game.NewPlayer(2, "GB", "Bob", "1.1.1.2")
	peer.AdminRole = game.RoleAdmin
	g.AddPlayer(peer, nil)

	d := New(g, fakeOffline{}, newFakeStore(), newFakeActions(), Config{})
	reply := d.Dispatch(context.Background(), caller, "!kick Bob oops")
	require.Equal(t, "cannot affect an admin of equal or higher level", reply)
}

func TestRegisterSetsAdminRole(t *testing.T) {
	g := game.NewGame()
	caller := game.NewPlayer(1, "GA", "Alice", "1.1.1.1")
	g.AddPlayer(caller, nil)

	d := New(g, fakeOffline{}, newFakeStore(), newFakeActions(), Config{})
	reply := d.Dispatch(context.Background(), caller, "!register")
	require.Equal(t, "thanks for registering, Alice", reply)
	require.Equal(t, game.RoleUser, caller.AdminRole)
}

// TestTempbanRequiresAdminBanRequiresFullAdmin pins down the split
// between the two ban lengths: an Admin may issue a limited !tempban
// but is refused !ban, which needs FullAdmin.
func TestTempbanRequiresAdminBanRequiresFullAdmin(t *testing.T) {
	g := game.NewGame()
	caller := game.NewPlayer(1, "GA", "Alice", "1.1.1.1")
	caller.AdminRole = game.RoleAdmin
	g.AddPlayer(caller, nil)
	victim := game.NewPlayer(2, "GB", "Bob", "1.1.1.2")
	g.AddPlayer(victim, nil)

	actions := newFakeActions()
	d := New(g, fakeOffline{}, newFakeStore(), actions, Config{})

	reply := d.Dispatch(context.Background(), caller, "!tempban Bob 1d griefing")
	require.Equal(t, "banned Bob for 1 day: griefing", reply)
	require.Len(t, actions.banned, 1)

	reply = d.Dispatch(context.Background(), caller, "!ban Bob griefing again")
	require.Equal(t, "you do not have permission to use this command", reply)
	require.Len(t, actions.banned, 1)

	caller.AdminRole = game.RoleFullAdmin
	reply = d.Dispatch(context.Background(), caller, "!ban Bob griefing again")
	require.Equal(t, "banned Bob for 7 days: griefing again", reply)
	require.Len(t, actions.banned, 2)
}

// TestUngroupRequiresExactHeadAdmin checks that !ungroup is refused to a
// super admin and that a head admin can put an admin back in group user.
func TestUngroupRequiresExactHeadAdmin(t *testing.T) {
	g := game.NewGame()
	caller := game.NewPlayer(1, "GA", "Alice", "1.1.1.1")
	caller.AdminRole = game.RoleSuperAdmin
	g.AddPlayer(caller, nil)
	victim := game.NewPlayer(2, "GB", "Bob", "1.1.1.2")
	victim.AdminRole = game.RoleAdmin
	g.AddPlayer(victim, nil)

	store := newFakeStore()
	d := New(g, fakeOffline{}, store, newFakeActions(), Config{})

	reply := d.Dispatch(context.Background(), caller, "!ungroup Bob")
	require.Equal(t, "you do not have permission to use this command", reply)
	require.Equal(t, game.RoleAdmin, victim.AdminRole)

	caller.AdminRole = game.RoleHeadAdmin
	reply = d.Dispatch(context.Background(), caller, "!ungroup Bob")
	require.Equal(t, "Bob put in group user", reply)
	require.Equal(t, game.RoleUser, victim.AdminRole)
	require.Equal(t, int(game.RoleUser), store.roles["GB"])
}
