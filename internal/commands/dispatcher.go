// Package commands implements the in-game chat command table: target
// resolution, permission gating and the handler catalogue that turns a
// `!kick Ali reason` chat line into RCON actions and store writes.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spunkybot/urtadmind/internal/boterr"
	"github.com/spunkybot/urtadmind/internal/game"
)

// Actions is the outbound surface a command handler may drive. The
// concrete implementation lives in the daemon, backed by the RCON
// dispatcher and the store.
type Actions interface {
	Tell(slot int, msg string)
	Broadcast(msg string)
	Kick(slot int, reason string)
	Smite(slot int)
	Raw(cmd string)
	Ban(ctx context.Context, guid, name, ip string, d time.Duration, reason string) error
}

// Store is the persistence surface commands read and write.
type Store interface {
	RegisterUser(ctx context.Context, guid, name string, role int) error
	SetAdminRole(ctx context.Context, guid string, role int) error
	HasHeadAdmin(ctx context.Context) (bool, error)
	LookupXLRStats(ctx context.Context, guid string) (*XLRStats, error)
	Unban(ctx context.Context, id int64) error
	AddBanPoint(ctx context.Context, guid, pointType string, duration time.Duration) (int, error)
	ClearBanPoints(ctx context.Context, guid string) error
	LookupIdentity(ctx context.Context, guid string) (*Identity, error)
	SearchPlayers(ctx context.Context, query string, limit int) ([]Identity, error)
	LookupActiveBan(ctx context.Context, guid, ip string) (*BanSummary, error)
	ListActiveBans(ctx context.Context, limit int) ([]BanSummary, error)
}

// XLRStats mirrors store.XLRStats; re-declared here so this package
// does not need to import store directly (kept in sync by the daemon's
// adapter, same narrow-interface pattern as policy and schedule).
type XLRStats struct {
	Kills         int
	Deaths        int
	Headshots     int
	TeamKills     int
	MaxKillStreak int
	Suicides      int
	LastPlayed    time.Time
}

// Identity mirrors store.PlayerIdentity; re-declared for the same
// reason as XLRStats.
type Identity struct {
	ID      int64
	Guid    string
	Name    string
	Aliases []string
}

// BanSummary mirrors the fields of store.BanRecord command replies
// need to display.
type BanSummary struct {
	ID      int64
	Name    string
	Expires time.Time
	Reason  string
}

// Session is the invoking player: the caller's own Player record, used
// for immunity checks and as the default target of self-only commands.
type Session struct {
	Caller *game.Player
}

// Handler runs one command. args is the raw text after the command
// name, already split into words where that's useful; target, when
// non-nil, is the already-resolved first-argument player.
type Handler func(ctx context.Context, d *Dispatcher, s Session, target game.Target, args []string) (reply string, err error)

// Command is one row of the permission-gated command table.
type Command struct {
	Name        string
	Aliases     []string
	MinRole     game.Role
	NeedsTarget bool
	Syntax      string
	Short       string
	Handler     Handler
}

// Dispatcher owns the command table and the collaborators handlers need.
type Dispatcher struct {
	roster  Roster
	offline OfflineLookup
	store   Store
	actions Actions
	cfg     Config

	byName map[string]*Command
	order  []*Command
}

// Config mirrors the bot.* knobs command handlers consult.
type Config struct {
	TeamkillForgiveLimit int
	DefaultBanDuration    time.Duration
	AdminPassword         string
}

// New builds a Dispatcher and registers the built-in command catalogue.
func New(roster Roster, offline OfflineLookup, store Store, actions Actions, cfg Config) *Dispatcher {
	d := &Dispatcher{roster: roster, offline: offline, store: store, actions: actions, cfg: cfg, byName: make(map[string]*Command)}
	d.registerBuiltins()
	return d
}

// Register adds or replaces a command row.
func (d *Dispatcher) Register(c *Command) {
	d.byName[c.Name] = c
	for _, a := range c.Aliases {
		d.byName[a] = c
	}
	d.order = append(d.order, c)
}

// Lookup returns the command bound to name or an alias, if any.
func (d *Dispatcher) Lookup(name string) (*Command, bool) {
	c, ok := d.byName[strings.ToLower(name)]
	return c, ok
}

// Commands returns the registration-ordered catalogue, for !help.
func (d *Dispatcher) Commands() []*Command { return d.order }

// Dispatch parses one chat line ("!kick Ali reason"), resolves
// permissions and the first-argument target when the command needs
// one, and runs the handler. The returned string is what gets told
// back to the caller; it is empty when line has no "!" prefix or no
// command name after it.
func (d *Dispatcher) Dispatch(ctx context.Context, caller *game.Player, line string) string {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "!") {
		return ""
	}
	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return ""
	}
	name, rest := fields[0], fields[1:]

	cmd, ok := d.Lookup(name)
	if !ok {
		return fmt.Sprintf("unknown command !%s", name)
	}
	if caller.AdminRole < cmd.MinRole {
		return "you do not have permission to use this command"
	}

	s := Session{Caller: caller}

	if !cmd.NeedsTarget {
		reply, err := cmd.Handler(ctx, d, s, nil, rest)
		return finalize(reply, err)
	}

	if len(rest) == 0 {
		return fmt.Sprintf("usage: %s", cmd.Syntax)
	}
	target, candidates, err := ResolveTarget(d.roster, d.offline, rest[0])
	if err != nil {
		switch {
		case errors.Is(err, boterr.ErrTargetAmbiguous):
			return "ambiguous target, matches: " + strings.Join(candidates, ", ")
		case errors.Is(err, boterr.ErrTargetNotFound):
			return "no player found matching " + rest[0]
		default:
			return "invalid target " + rest[0]
		}
	}
	if p, ok := target.(*game.Player); ok {
		if p.Slot == caller.Slot {
			return "you cannot target yourself with this command"
		}
		if p.AdminRole >= caller.AdminRole && p.AdminRole > game.RoleGuest {
			return "cannot affect an admin of equal or higher level"
		}
	}

	reply, err := cmd.Handler(ctx, d, s, target, rest[1:])
	return finalize(reply, err)
}

func finalize(reply string, err error) string {
	if err != nil {
		return err.Error()
	}
	return reply
}

func joinReason(args []string, fallback string) string {
	if len(args) == 0 {
		return fallback
	}
	return strings.Join(args, " ")
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
