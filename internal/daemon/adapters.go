package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/spunkybot/urtadmind/internal/commands"
	"github.com/spunkybot/urtadmind/internal/game"
	"github.com/spunkybot/urtadmind/internal/rcon"
	"github.com/spunkybot/urtadmind/internal/store"
)

// rconActions is the single concrete implementation satisfying
// policy.Actions, schedule.Actions and commands.Actions: every admin
// side effect funnels through the RCON dispatcher's FIFO queue, and
// every persistent write goes through the store.
type rconActions struct {
	d *Daemon
}

func (a *rconActions) Broadcast(msg string) {
	a.d.dispatcher.Enqueue(fmt.Sprintf(`say "%s"`, msg))
}

func (a *rconActions) Tell(slot int, msg string) {
	a.d.dispatcher.Enqueue(fmt.Sprintf(`tell %d "%s"`, slot, msg))
}

func (a *rconActions) BigText(msg string) {
	a.d.dispatcher.Enqueue(fmt.Sprintf(`bigtext "%s"`, msg))
}

func (a *rconActions) Kick(slot int, reason string) {
	a.d.dispatcher.Enqueue(fmt.Sprintf(`kick %d "%s"`, slot, reason))
}

func (a *rconActions) Smite(slot int) {
	a.d.dispatcher.Enqueue(fmt.Sprintf("smite %d", slot))
}

func (a *rconActions) Raw(cmd string) {
	a.d.dispatcher.Enqueue(cmd)
}

// permanentBanHorizon stands in for "forever": a ban duration of zero
// or less is stored as this far out instead of a literal zero expiry,
// which the store's monotonicity check would treat as already expired.
const permanentBanHorizon = 100 * 365 * 24 * time.Hour

func (a *rconActions) Ban(ctx context.Context, guid, name, ip string, d time.Duration, reason string) error {
	if d <= 0 {
		d = permanentBanHorizon
	}
	return a.d.store.Ban(ctx, guid, name, ip, time.Now().Add(d), reason)
}

// banPointStore adapts *store.Store to schedule.Store.
type banPointStore struct{ st *store.Store }

func (b *banPointStore) PurgeExpiredBanPoints(ctx context.Context) (int64, error) {
	return b.st.PurgeExpiredBanPoints(ctx)
}

// statusSource adapts the RCON client's last getstatus snapshot to
// schedule.StatusSource by matching a connected player's canonicalized
// name against the status reply, since getstatus reports names and
// pings but not absolute slot numbers.
type statusSource struct {
	client *rcon.Client
	game   *game.Game
}

func (s *statusSource) PingForSlot(slot int) (int, bool) {
	p := s.game.Player(slot)
	if p == nil {
		return 0, false
	}
	want := game.CanonicalizeName(p.Name)
	for _, sp := range s.client.Players {
		if game.CanonicalizeName(sp.Name) == want {
			return sp.Ping, true
		}
	}
	return 0, false
}

// cmdStore adapts *store.Store to commands.Store.
type cmdStore struct{ st *store.Store }

func (c *cmdStore) RegisterUser(ctx context.Context, guid, name string, role int) error {
	return c.st.RegisterUser(ctx, guid, name, role)
}
func (c *cmdStore) SetAdminRole(ctx context.Context, guid string, role int) error {
	return c.st.SetAdminRole(ctx, guid, role)
}
func (c *cmdStore) HasHeadAdmin(ctx context.Context) (bool, error) {
	return c.st.HasHeadAdmin(ctx)
}
func (c *cmdStore) LookupXLRStats(ctx context.Context, guid string) (*commands.XLRStats, error) {
	x, err := c.st.LookupXLRStats(ctx, guid)
	if err != nil || x == nil {
		return nil, err
	}
	return &commands.XLRStats{
		Kills: x.Kills, Deaths: x.Deaths, Headshots: x.Headshots,
		TeamKills: x.TeamKills, MaxKillStreak: x.MaxKillStreak, Suicides: x.Suicides,
		LastPlayed: x.LastPlayed,
	}, nil
}
func (c *cmdStore) Unban(ctx context.Context, id int64) error { return c.st.Unban(ctx, id) }
func (c *cmdStore) AddBanPoint(ctx context.Context, guid, pointType string, duration time.Duration) (int, error) {
	return c.st.AddBanPoint(ctx, guid, pointType, duration)
}
func (c *cmdStore) ClearBanPoints(ctx context.Context, guid string) error {
	return c.st.ClearBanPoints(ctx, guid)
}
func (c *cmdStore) LookupIdentity(ctx context.Context, guid string) (*commands.Identity, error) {
	p, err := c.st.LookupIdentity(ctx, guid)
	if err != nil || p == nil {
		return nil, err
	}
	return &commands.Identity{ID: p.ID, Guid: p.Guid, Name: p.Name, Aliases: p.Aliases}, nil
}
func (c *cmdStore) SearchPlayers(ctx context.Context, query string, limit int) ([]commands.Identity, error) {
	rows, err := c.st.SearchPlayers(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]commands.Identity, len(rows))
	for i, p := range rows {
		out[i] = commands.Identity{ID: p.ID, Guid: p.Guid, Name: p.Name, Aliases: p.Aliases}
	}
	return out, nil
}
func (c *cmdStore) LookupActiveBan(ctx context.Context, guid, ip string) (*commands.BanSummary, error) {
	b, err := c.st.LookupActiveBan(ctx, guid, ip)
	if err != nil || b == nil {
		return nil, err
	}
	return &commands.BanSummary{ID: b.ID, Name: b.Name, Expires: b.Expires, Reason: b.Reason}, nil
}
func (c *cmdStore) ListActiveBans(ctx context.Context, limit int) ([]commands.BanSummary, error) {
	rows, err := c.st.ListActiveBans(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]commands.BanSummary, len(rows))
	for i, b := range rows {
		out[i] = commands.BanSummary{ID: b.ID, Name: b.Name, Expires: b.Expires, Reason: b.Reason}
	}
	return out, nil
}

// offlineStore adapts *store.Store to commands.OfflineLookup, resolving
// the `@<id>` target syntax against the player identity table.
type offlineStore struct{ st *store.Store }

func (o *offlineStore) LookupOffline(id int64) (*game.OfflinePlayer, bool) {
	ctx := context.Background()
	p, err := o.st.LookupPlayerByID(ctx, id)
	if err != nil || p == nil {
		return nil, false
	}
	role := game.RoleGuest
	if x, err := o.st.LookupXLRStats(ctx, p.Guid); err == nil && x != nil {
		role = game.Role(x.AdminRole)
	}
	return &game.OfflinePlayer{
		PlayerID: p.ID, Guid: p.Guid, Name: p.Name, IPAddress: p.IPAddress, AdminRole: role,
	}, true
}
