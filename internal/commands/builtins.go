package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spunkybot/urtadmind/internal/game"
)

// banDurationDefault is the fixed ban length !ban applies, distinct
// from !tempban's caller-supplied duration and !permban's permanent
// horizon.
const banDurationDefault = 7 * 24 * time.Hour

// maxAliasesShown caps the alias list rendered by !aliases, matching
// the store's own display cap so a registered player's full history
// never floods a single chat line.
const maxAliasesShown = 15

func (d *Dispatcher) registerBuiltins() {
	d.Register(&Command{
		Name: "register", MinRole: game.RoleGuest,
		Short: "register your guid for admin progression",
		Handler: func(ctx context.Context, d *Dispatcher, s Session, _ game.Target, _ []string) (string, error) {
			c := s.Caller
			if c.AdminRole >= game.RoleUser {
				return "you are already registered", nil
			}
			if err := d.store.RegisterUser(ctx, c.Guid, c.Name, int(game.RoleUser)); err != nil {
				return "", err
			}
			c.AdminRole = game.RoleUser
			return "thanks for registering, " + c.Name, nil
		},
	})

	d.Register(&Command{
		Name: "mapstats", MinRole: game.RoleGuest, Short: "show your stats for the current map",
		Handler: func(_ context.Context, _ *Dispatcher, s Session, _ game.Target, _ []string) (string, error) {
			p := s.Caller
			return fmt.Sprintf("%d kills - %d deaths | %d kills in a row - %d teamkills | %d total hits - %d headshots",
				p.Kills, p.Deaths, p.KillingStreak, p.DBTKCount, p.AllHits, p.Headshots), nil
		},
	})

	d.Register(&Command{
		Name: "stats", Aliases: []string{"xlrstats"}, MinRole: game.RoleGuest, Short: "show your lifetime stats",
		Handler: func(ctx context.Context, d *Dispatcher, s Session, _ game.Target, _ []string) (string, error) {
			x, err := d.store.LookupXLRStats(ctx, s.Caller.Guid)
			if err != nil {
				return "", err
			}
			if x == nil {
				return "no stats on file, play a round first", nil
			}
			ratio := 0.0
			if x.Deaths > 0 {
				ratio = float64(x.Kills) / float64(x.Deaths)
			}
			return fmt.Sprintf("%s: %d kills, %d deaths (%.2f ratio), %d headshots, %d teamkills",
				s.Caller.Name, x.Kills, x.Deaths, ratio, x.Headshots, x.TeamKills), nil
		},
	})

	d.Register(&Command{
		Name: "hs", MinRole: game.RoleGuest, Short: "show your headshot count",
		Handler: func(_ context.Context, _ *Dispatcher, s Session, _ game.Target, _ []string) (string, error) {
			if s.Caller.Headshots == 0 {
				return "you made no headshots", nil
			}
			return fmt.Sprintf("you made %d headshots", s.Caller.Headshots), nil
		},
	})

	d.Register(&Command{
		Name: "spree", MinRole: game.RoleGuest, Short: "show your current killing spree",
		Handler: func(_ context.Context, _ *Dispatcher, s Session, _ game.Target, _ []string) (string, error) {
			if s.Caller.KillingStreak == 0 {
				return "you are not currently on a killing spree", nil
			}
			return fmt.Sprintf("you have %d kills in a row", s.Caller.KillingStreak), nil
		},
	})

	d.Register(&Command{
		Name: "bombstats", MinRole: game.RoleGuest, Short: "show your bomb-mode stats",
		Handler: func(_ context.Context, _ *Dispatcher, s Session, _ game.Target, _ []string) (string, error) {
			p := s.Caller
			return fmt.Sprintf("planted: %d - defused: %d | bomb carrier kills: %d - enemies bombed: %d",
				p.BombPlanted, p.BombDefused, p.BombCarrierKills, p.KillsWithBomb), nil
		},
	})

	d.Register(&Command{
		Name: "freezestats", MinRole: game.RoleGuest, Short: "show your freeze-tag stats",
		Handler: func(_ context.Context, _ *Dispatcher, s Session, _ game.Target, _ []string) (string, error) {
			return fmt.Sprintf("freeze: %d - thaw out: %d", s.Caller.Freezes, s.Caller.Thawouts), nil
		},
	})

	d.Register(&Command{
		Name: "time", MinRole: game.RoleGuest, Short: "show the server's current time",
		Handler: func(_ context.Context, _ *Dispatcher, _ Session, _ game.Target, _ []string) (string, error) {
			return time.Now().Format("15:04"), nil
		},
	})

	d.Register(&Command{
		Name: "teams", MinRole: game.RoleGuest, Short: "request an immediate team-balance pass",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, _ game.Target, _ []string) (string, error) {
			d.actions.Raw("force_balance")
			return "balancing teams", nil
		},
	})

	d.Register(&Command{
		Name: "forgive", MinRole: game.RoleGuest, NeedsTarget: true,
		Syntax: "!forgive <player>", Short: "forgive a teamkiller by name or slot",
		Handler: func(_ context.Context, d *Dispatcher, s Session, target game.Target, _ []string) (string, error) {
			killer, ok := target.(*game.Player)
			if !ok {
				return "that player is not online", nil
			}
			s.Caller.Forgive(killer.Slot, killer)
			d.actions.Broadcast(fmt.Sprintf("%s forgave %s", s.Caller.Name, killer.Name))
			return "forgiven", nil
		},
	})

	d.Register(&Command{
		Name: "forgiveprev", Aliases: []string{"fp", "f"}, MinRole: game.RoleGuest,
		Short: "forgive the most recent teamkiller",
		Handler: func(_ context.Context, d *Dispatcher, s Session, _ game.Target, _ []string) (string, error) {
			victim := s.Caller
			if len(victim.KilledMe) == 0 {
				return "no one to forgive", nil
			}
			killerSlot := victim.KilledMe[len(victim.KilledMe)-1]
			killer := d.roster.Player(killerSlot)
			victim.Forgive(killerSlot, killer)
			name := "that player"
			if killer != nil {
				name = killer.Name
			}
			d.actions.Broadcast(fmt.Sprintf("%s has forgiven %s's attack", victim.Name, name))
			return "forgiven", nil
		},
	})

	d.Register(&Command{
		Name: "forgiveall", Aliases: []string{"fa"}, MinRole: game.RoleGuest,
		Short: "forgive every outstanding teamkiller",
		Handler: func(_ context.Context, d *Dispatcher, s Session, _ game.Target, _ []string) (string, error) {
			victim := s.Caller
			if len(victim.KilledMe) == 0 {
				return "no one to forgive", nil
			}
			var names []string
			for _, slot := range append([]int(nil), victim.KilledMe...) {
				killer := d.roster.Player(slot)
				victim.Forgive(slot, killer)
				if killer != nil {
					names = append(names, killer.Name)
				}
			}
			d.actions.Broadcast(fmt.Sprintf("%s has forgiven: %s", victim.Name, strings.Join(names, ", ")))
			return "forgiven", nil
		},
	})

	d.Register(&Command{
		Name: "grudge", MinRole: game.RoleGuest, NeedsTarget: true,
		Syntax: "!grudge <player>", Short: "never auto-forgive a teamkiller",
		Handler: func(_ context.Context, d *Dispatcher, s Session, target game.Target, _ []string) (string, error) {
			killer, ok := target.(*game.Player)
			if !ok {
				return "that player is not online", nil
			}
			s.Caller.Grudge(killer.Slot, killer)
			return "grudge recorded against " + killer.Name, nil
		},
	})

	d.Register(&Command{
		Name: "admintest", MinRole: game.RoleGuest, Short: "show your admin level",
		Handler: func(_ context.Context, _ *Dispatcher, s Session, _ game.Target, _ []string) (string, error) {
			return fmt.Sprintf("%s is level %d", s.Caller.Name, s.Caller.AdminRole), nil
		},
	})

	d.Register(&Command{
		Name: "iamgod", MinRole: game.RoleGuest, Short: "bootstrap the first head admin",
		Handler: func(ctx context.Context, d *Dispatcher, s Session, _ game.Target, _ []string) (string, error) {
			has, err := d.store.HasHeadAdmin(ctx)
			if err != nil {
				return "", err
			}
			if has {
				return "a head admin is already registered", nil
			}
			if err := d.store.RegisterUser(ctx, s.Caller.Guid, s.Caller.Name, int(game.RoleHeadAdmin)); err != nil {
				return "", err
			}
			s.Caller.AdminRole = game.RoleHeadAdmin
			return "you are registered as head admin", nil
		},
	})

	d.Register(&Command{
		Name: "help", Aliases: []string{"h"}, MinRole: game.RoleGuest, Short: "list commands available to you",
		Handler: func(_ context.Context, d *Dispatcher, s Session, _ game.Target, _ []string) (string, error) {
			var names []string
			for _, c := range d.order {
				if s.Caller.AdminRole >= c.MinRole {
					names = append(names, "!"+c.Name)
				}
			}
			return strings.Join(names, ", "), nil
		},
	})

	// moderator level 20

	d.Register(&Command{
		Name: "list", MinRole: game.RoleModerator, Short: "list connected players and slots",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, _ game.Target, _ []string) (string, error) {
			players := d.roster.ConnectedPlayers()
			if len(players) == 0 {
				return "no players online", nil
			}
			parts := make([]string, len(players))
			for i, p := range players {
				parts[i] = fmt.Sprintf("%s [%d]", p.Name, p.Slot)
			}
			return "players online: " + strings.Join(parts, ", "), nil
		},
	})

	d.Register(&Command{
		Name: "mute", MinRole: game.RoleModerator, NeedsTarget: true,
		Syntax: "!mute <player> [duration]", Short: "mute a player's chat",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, target game.Target, args []string) (string, error) {
			p, ok := target.(*game.Player)
			if !ok {
				return "that player is not online", nil
			}
			dur := "0"
			if len(args) > 0 {
				dur = args[0]
			}
			d.actions.Raw(fmt.Sprintf("mute %d %s", p.Slot, dur))
			return "muted " + p.Name, nil
		},
	})

	d.Register(&Command{
		Name: "seen", MinRole: game.RoleModerator, NeedsTarget: true,
		Syntax: "!seen <player>", Short: "show when a player was last on the server",
		Handler: func(ctx context.Context, d *Dispatcher, _ Session, target game.Target, _ []string) (string, error) {
			x, err := d.store.LookupXLRStats(ctx, target.TargetGuid())
			if err != nil {
				return "", err
			}
			if x == nil {
				return target.TargetName() + " is not a registered user", nil
			}
			return fmt.Sprintf("%s was last seen on %s", target.TargetName(), x.LastPlayed.Format("2006-01-02 15:04")), nil
		},
	})

	d.Register(&Command{
		Name: "country", MinRole: game.RoleModerator, NeedsTarget: true,
		Syntax: "!country <player>", Short: "show a player's country",
		Handler: func(_ context.Context, _ *Dispatcher, _ Session, target game.Target, _ []string) (string, error) {
			return target.TargetName() + ": GeoIP lookup is not available in this daemon", nil
		},
	})

	d.Register(&Command{
		Name: "leveltest", Aliases: []string{"lt"}, MinRole: game.RoleModerator, NeedsTarget: true,
		Syntax: "!leveltest <player>", Short: "show a player's admin level",
		Handler: func(_ context.Context, _ *Dispatcher, _ Session, target game.Target, _ []string) (string, error) {
			return fmt.Sprintf("%s is level %d", target.TargetName(), target.TargetRole()), nil
		},
	})

	d.Register(&Command{
		Name: "nextmap", MinRole: game.RoleModerator, Short: "show the next map in rotation",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, _ game.Target, _ []string) (string, error) {
			next := d.roster.NextMap()
			if next == "" {
				return "next map is not yet known", nil
			}
			return "next map: " + next, nil
		},
	})

	d.Register(&Command{
		Name: "warn", Aliases: []string{"w"}, MinRole: game.RoleModerator, NeedsTarget: true,
		Syntax: "!warn <player> <reason>", Short: "issue an explicit warning",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, target game.Target, args []string) (string, error) {
			p, ok := target.(*game.Player)
			if !ok {
				return "that player is not online", nil
			}
			reason := joinReason(args, "behave")
			p.AddWarning(reason, true, time.Now())
			d.actions.Tell(p.Slot, "warning: "+reason)
			return "warned " + p.Name, nil
		},
	})

	d.Register(&Command{
		Name: "shuffleteams", Aliases: []string{"shuffle"}, MinRole: game.RoleModerator,
		Short: "force a random team shuffle",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, _ game.Target, _ []string) (string, error) {
			d.actions.Raw("shuffleteams")
			return "shuffling teams", nil
		},
	})

	// admin level 40

	d.Register(&Command{
		Name: "admins", MinRole: game.RoleAdmin, Short: "list connected admins",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, _ game.Target, _ []string) (string, error) {
			var names []string
			for _, p := range d.roster.ConnectedPlayers() {
				if p.AdminRole >= game.RoleModerator {
					names = append(names, fmt.Sprintf("%s [%d]", p.Name, p.AdminRole))
				}
			}
			if len(names) == 0 {
				return "no admins online", nil
			}
			return strings.Join(names, ", "), nil
		},
	})

	d.Register(&Command{
		Name: "aliases", Aliases: []string{"alias"}, MinRole: game.RoleAdmin, NeedsTarget: true,
		Syntax: "!aliases <player>", Short: "show a player's known aliases",
		Handler: func(ctx context.Context, d *Dispatcher, _ Session, target game.Target, _ []string) (string, error) {
			id, err := d.store.LookupIdentity(ctx, target.TargetGuid())
			if err != nil {
				return "", err
			}
			if id == nil {
				return target.TargetName() + " has no known aliases", nil
			}
			return target.TargetName() + ": " + aliasDisplay(id.Aliases), nil
		},
	})

	d.Register(&Command{
		Name: "bigtext", MinRole: game.RoleAdmin, Short: "display a big-text message",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, _ game.Target, args []string) (string, error) {
			msg := joinReason(args, "")
			if msg == "" {
				return "usage: !bigtext <message>", nil
			}
			d.actions.Raw("bigtext \"" + msg + "\"")
			return "displayed", nil
		},
	})

	d.Register(&Command{
		Name: "say", MinRole: game.RoleAdmin, Short: "broadcast a message as the server",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, _ game.Target, args []string) (string, error) {
			msg := joinReason(args, "")
			if msg == "" {
				return "usage: !say <message>", nil
			}
			d.actions.Broadcast(msg)
			return "sent", nil
		},
	})

	d.Register(&Command{
		Name: "force", MinRole: game.RoleAdmin, NeedsTarget: true,
		Syntax: "!force <player> <red|blue|spec> [lock]", Short: "force a player onto a team",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, target game.Target, args []string) (string, error) {
			p, ok := target.(*game.Player)
			if !ok {
				return "that player is not online", nil
			}
			if len(args) == 0 {
				return "usage: !force <player> <red|blue|spec> [lock]", nil
			}
			team, ok := parseTeamName(args[0])
			if !ok {
				return "usage: !force <player> <red|blue|spec> [lock]", nil
			}
			p.Team = team
			if len(args) > 1 && args[1] == "lock" {
				p.TeamLock = teamLockFor(team)
			} else {
				p.TeamLock = game.TeamLockNone
			}
			d.actions.Raw(fmt.Sprintf("forceteam %d %s", p.Slot, teamRCONName(team)))
			d.actions.Tell(p.Slot, "you are forced to "+teamRCONName(team))
			return "forced " + p.Name + " to " + teamRCONName(team), nil
		},
	})

	d.Register(&Command{
		Name: "nuke", MinRole: game.RoleAdmin, NeedsTarget: true,
		Syntax: "!nuke <player>", Short: "nuke a player",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, target game.Target, _ []string) (string, error) {
			p, ok := target.(*game.Player)
			if !ok {
				return "that player is not online", nil
			}
			d.actions.Raw(fmt.Sprintf("nuke %d", p.Slot))
			return "nuked " + p.Name, nil
		},
	})

	d.Register(&Command{
		Name: "kick", Aliases: []string{"k"}, MinRole: game.RoleAdmin, NeedsTarget: true,
		Syntax: "!kick <player> [reason]", Short: "kick a player",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, target game.Target, args []string) (string, error) {
			p, ok := target.(*game.Player)
			if !ok {
				return "that player is not online", nil
			}
			reason := joinReason(args, "kicked by an admin")
			d.actions.Kick(p.Slot, reason)
			return fmt.Sprintf("kicked %s: %s", p.Name, reason), nil
		},
	})

	d.Register(&Command{
		Name: "warnclear", Aliases: []string{"wc", "wr"}, MinRole: game.RoleAdmin, NeedsTarget: true,
		Syntax: "!warnclear <player>", Short: "clear a player's warnings",
		Handler: func(ctx context.Context, d *Dispatcher, _ Session, target game.Target, _ []string) (string, error) {
			p, ok := target.(*game.Player)
			if !ok {
				return "that player is not online", nil
			}
			p.ClearWarning()
			if err := d.store.ClearBanPoints(ctx, p.Guid); err != nil {
				return "", err
			}
			return "cleared warnings for " + p.Name, nil
		},
	})

	d.Register(&Command{
		Name: "tempban", Aliases: []string{"tb"}, MinRole: game.RoleAdmin, NeedsTarget: true,
		Syntax: "!tempban <player> <duration> <reason>", Short: "ban a player for a limited time",
		Handler: func(ctx context.Context, d *Dispatcher, _ Session, target game.Target, args []string) (string, error) {
			dur, human, reason := shiftDuration(args)
			if err := d.actions.Ban(ctx, target.TargetGuid(), target.TargetName(), addressOf(target), dur, reason); err != nil {
				return "", err
			}
			if p, ok := target.(*game.Player); ok {
				d.actions.Kick(p.Slot, reason)
			}
			return fmt.Sprintf("banned %s for %s: %s", target.TargetName(), human, reason), nil
		},
	})

	// full admin level 60

	d.Register(&Command{
		Name: "scream", MinRole: game.RoleFullAdmin, Short: "broadcast a message in every chat color",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, _ game.Target, args []string) (string, error) {
			msg := joinReason(args, "")
			if msg == "" {
				return "usage: !scream <text>", nil
			}
			for _, color := range []string{"^1", "^2", "^3", "^5"} {
				d.actions.Broadcast(color + msg)
			}
			return "screamed", nil
		},
	})

	d.Register(&Command{
		Name: "slap", MinRole: game.RoleFullAdmin, NeedsTarget: true,
		Syntax: "!slap <player> [amount]", Short: "slap a player 1-10 times",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, target game.Target, args []string) (string, error) {
			p, ok := target.(*game.Player)
			if !ok {
				return "that player is not online", nil
			}
			n := 1
			if len(args) > 0 {
				n = atoiOr(args[0], 1)
			}
			if n > 10 {
				n = 10
			}
			if n < 1 {
				n = 1
			}
			for i := 0; i < n; i++ {
				d.actions.Raw(fmt.Sprintf("slap %d", p.Slot))
			}
			return fmt.Sprintf("slapped %s %d time(s)", p.Name, n), nil
		},
	})

	d.Register(&Command{
		Name: "swap", MinRole: game.RoleFullAdmin, NeedsTarget: true,
		Syntax: "!swap <player1> <player2>", Short: "swap two players between teams",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, target game.Target, args []string) (string, error) {
			p1, ok := target.(*game.Player)
			if !ok {
				return "that player is not online", nil
			}
			if len(args) == 0 {
				return "usage: !swap <player1> <player2>", nil
			}
			target2, _, err := ResolveTarget(d.roster, d.offline, args[0])
			if err != nil {
				return "player not found", nil
			}
			p2, ok := target2.(*game.Player)
			if !ok {
				return "that player is not online", nil
			}
			if p1.Team == p2.Team {
				return "cannot swap, both players are on the same team", nil
			}
			p1.Team, p2.Team = p2.Team, p1.Team
			p1.TeamLock, p2.TeamLock = game.TeamLockNone, game.TeamLockNone
			d.actions.Raw(fmt.Sprintf("forceteam %d %s", p1.Slot, teamRCONName(p1.Team)))
			d.actions.Raw(fmt.Sprintf("forceteam %d %s", p2.Slot, teamRCONName(p2.Team)))
			d.actions.Broadcast(fmt.Sprintf("swapped %s with %s", p1.Name, p2.Name))
			return "swapped", nil
		},
	})

	d.Register(&Command{
		Name: "version", MinRole: game.RoleFullAdmin, Short: "show daemon version",
		Handler: func(_ context.Context, _ *Dispatcher, _ Session, _ game.Target, _ []string) (string, error) {
			return "urtadmind running", nil
		},
	})

	d.Register(&Command{
		Name: "veto", MinRole: game.RoleFullAdmin, Short: "cancel a pending map vote",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, _ game.Target, _ []string) (string, error) {
			d.actions.Raw("veto")
			return "vote cancelled", nil
		},
	})

	d.Register(&Command{
		Name: "ci", MinRole: game.RoleFullAdmin, NeedsTarget: true,
		Syntax: "!ci <player>", Short: "kick a player showing connection interrupted",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, target game.Target, _ []string) (string, error) {
			p, ok := target.(*game.Player)
			if !ok {
				return "that player is not online", nil
			}
			if p.PingValue != 999 {
				return p.Name + " has no connection interrupted", nil
			}
			d.actions.Kick(p.Slot, "connection interrupted")
			return "kicked " + p.Name + ": connection interrupted", nil
		},
	})

	d.Register(&Command{
		Name: "ban", Aliases: []string{"b"}, MinRole: game.RoleFullAdmin, NeedsTarget: true,
		Syntax: "!ban <player> <reason>", Short: "ban a player for 7 days",
		Handler: func(ctx context.Context, d *Dispatcher, _ Session, target game.Target, args []string) (string, error) {
			reason := joinReason(args, "banned by an admin")
			if err := d.actions.Ban(ctx, target.TargetGuid(), target.TargetName(), addressOf(target), banDurationDefault, reason); err != nil {
				return "", err
			}
			if p, ok := target.(*game.Player); ok {
				d.actions.Kick(p.Slot, reason)
			}
			return fmt.Sprintf("banned %s for 7 days: %s", target.TargetName(), reason), nil
		},
	})

	d.Register(&Command{
		Name: "baninfo", Aliases: []string{"bi"}, MinRole: game.RoleFullAdmin, NeedsTarget: true,
		Syntax: "!baninfo <player>", Short: "show a player's active ban",
		Handler: func(ctx context.Context, d *Dispatcher, _ Session, target game.Target, _ []string) (string, error) {
			b, err := d.store.LookupActiveBan(ctx, target.TargetGuid(), addressOf(target))
			if err != nil {
				return "", err
			}
			if b == nil {
				return target.TargetName() + " has no active ban", nil
			}
			return fmt.Sprintf("%s is banned until %s: %s", b.Name, b.Expires.Format("2006-01-02"), b.Reason), nil
		},
	})

	// senior admin level 80

	d.Register(&Command{
		Name: "map", MinRole: game.RoleSeniorAdmin, Short: "change the current map",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, _ game.Target, args []string) (string, error) {
			if len(args) == 0 {
				return "usage: !map <mapname>", nil
			}
			d.actions.Raw("g_nextmap " + args[0])
			d.actions.Raw("cyclemap")
			return "changing map to " + args[0], nil
		},
	})

	d.Register(&Command{
		Name: "maps", MinRole: game.RoleSeniorAdmin, Short: "list the maps in rotation",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, _ game.Target, _ []string) (string, error) {
			maps := d.roster.AllMaps()
			if len(maps) == 0 {
				return "no maps configured", nil
			}
			return "available maps: " + strings.Join(maps, ", "), nil
		},
	})

	d.Register(&Command{
		Name: "maprestart", MinRole: game.RoleSeniorAdmin, Short: "restart the current map",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, _ game.Target, _ []string) (string, error) {
			d.actions.Raw("restart")
			return "restarting map", nil
		},
	})

	d.Register(&Command{
		Name: "moon", MinRole: game.RoleSeniorAdmin, Short: "toggle low-gravity mode",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, _ game.Target, args []string) (string, error) {
			if len(args) == 0 {
				return "usage: !moon <on|off>", nil
			}
			switch args[0] {
			case "on":
				d.actions.Raw("g_gravity 100")
				return "moon mode: on", nil
			case "off":
				d.actions.Raw("g_gravity 800")
				return "moon mode: off", nil
			default:
				return "usage: !moon <on|off>", nil
			}
		},
	})

	d.Register(&Command{
		Name: "cyclemap", MinRole: game.RoleSeniorAdmin, Short: "start the next map in rotation now",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, _ game.Target, _ []string) (string, error) {
			d.actions.Raw("cyclemap")
			return "cycling map", nil
		},
	})

	d.Register(&Command{
		Name: "setnextmap", MinRole: game.RoleSeniorAdmin, Short: "set the next map in rotation",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, _ game.Target, args []string) (string, error) {
			if len(args) == 0 {
				return "usage: !setnextmap <mapname>", nil
			}
			d.actions.Raw("g_nextmap " + args[0])
			return "next map set to " + args[0], nil
		},
	})

	d.Register(&Command{
		Name: "kill", MinRole: game.RoleSeniorAdmin, NeedsTarget: true,
		Syntax: "!kill <player>", Short: "instantly kill a player",
		Handler: func(_ context.Context, d *Dispatcher, _ Session, target game.Target, _ []string) (string, error) {
			p, ok := target.(*game.Player)
			if !ok {
				return "that player is not online", nil
			}
			d.actions.Smite(p.Slot)
			return "killed " + p.Name, nil
		},
	})

	d.Register(&Command{
		Name: "lookup", Aliases: []string{"l"}, MinRole: game.RoleSeniorAdmin,
		Syntax: "!lookup <name>", Short: "search player history by name",
		Handler: func(ctx context.Context, d *Dispatcher, _ Session, _ game.Target, args []string) (string, error) {
			if len(args) == 0 {
				return "usage: !lookup <name>", nil
			}
			query := strings.Join(args, " ")
			results, err := d.store.SearchPlayers(ctx, query, 8)
			if err != nil {
				return "", err
			}
			if len(results) == 0 {
				return "no player found matching " + query, nil
			}
			parts := make([]string, len(results))
			for i, r := range results {
				parts[i] = fmt.Sprintf("[@%d] %s", r.ID, r.Name)
			}
			return strings.Join(parts, ", "), nil
		},
	})

	d.Register(&Command{
		Name: "permban", Aliases: []string{"pb"}, MinRole: game.RoleSeniorAdmin, NeedsTarget: true,
		Syntax: "!permban <player> <reason>", Short: "ban a player permanently",
		Handler: func(ctx context.Context, d *Dispatcher, _ Session, target game.Target, args []string) (string, error) {
			reason := joinReason(args, "permanently banned")
			if err := d.actions.Ban(ctx, target.TargetGuid(), target.TargetName(), addressOf(target), game.PermbanCap, reason); err != nil {
				return "", err
			}
			if p, ok := target.(*game.Player); ok {
				d.actions.Kick(p.Slot, reason)
			}
			return fmt.Sprintf("permanently banned %s: %s", target.TargetName(), reason), nil
		},
	})

	d.Register(&Command{
		Name: "putgroup", MinRole: game.RoleSeniorAdmin, NeedsTarget: true,
		Syntax: "!putgroup <player> <role>", Short: "set a player's admin group",
		Handler: func(ctx context.Context, d *Dispatcher, s Session, target game.Target, args []string) (string, error) {
			if len(args) == 0 {
				return "usage: !putgroup <player> <user|regular|mod|admin|fulladmin|senioradmin>", nil
			}
			role, ok := parseRoleName(args[0])
			if !ok {
				return "unknown role " + args[0], nil
			}
			if role >= game.RoleSeniorAdmin && s.Caller.AdminRole < game.RoleHeadAdmin {
				return "only the head admin may grant senior admin", nil
			}
			if err := d.store.SetAdminRole(ctx, target.TargetGuid(), int(role)); err != nil {
				return "", err
			}
			if p, ok := target.(*game.Player); ok {
				p.AdminRole = role
			}
			return fmt.Sprintf("%s is now level %d", target.TargetName(), role), nil
		},
	})

	d.Register(&Command{
		Name: "banlist", MinRole: game.RoleSeniorAdmin, Short: "list the most recent active bans",
		Handler: func(ctx context.Context, d *Dispatcher, _ Session, _ game.Target, _ []string) (string, error) {
			bans, err := d.store.ListActiveBans(ctx, 10)
			if err != nil {
				return "", err
			}
			if len(bans) == 0 {
				return "currently no one is banned", nil
			}
			parts := make([]string, len(bans))
			for i, b := range bans {
				parts[i] = fmt.Sprintf("[@%d] %s", b.ID, b.Name)
			}
			return "banlist: " + strings.Join(parts, ", "), nil
		},
	})

	d.Register(&Command{
		Name: "unban", MinRole: game.RoleSeniorAdmin, Short: "lift a ban by its row id",
		Handler: func(ctx context.Context, d *Dispatcher, _ Session, _ game.Target, args []string) (string, error) {
			if len(args) == 0 {
				return "usage: !unban <id>", nil
			}
			id := atoiOr(args[0], -1)
			if id < 0 {
				return "invalid ban id", nil
			}
			if err := d.store.Unban(ctx, int64(id)); err != nil {
				return "", err
			}
			return fmt.Sprintf("ban %d lifted", id), nil
		},
	})

	// head admin level 100 exactly

	d.Register(&Command{
		Name: "ungroup", MinRole: game.RoleHeadAdmin, NeedsTarget: true,
		Syntax: "!ungroup <player>", Short: "remove a player's admin group",
		Handler: func(ctx context.Context, d *Dispatcher, _ Session, target game.Target, _ []string) (string, error) {
			role := target.TargetRole()
			if role <= game.RoleUser || role >= game.RoleHeadAdmin {
				return "cannot put " + target.TargetName() + " in group user", nil
			}
			if err := d.store.SetAdminRole(ctx, target.TargetGuid(), int(game.RoleUser)); err != nil {
				return "", err
			}
			if p, ok := target.(*game.Player); ok {
				p.AdminRole = game.RoleUser
			}
			return target.TargetName() + " put in group user", nil
		},
	})
}

func aliasDisplay(aliases []string) string {
	if len(aliases) == 0 {
		return "no known aliases"
	}
	shown := aliases
	suffix := ""
	if len(shown) > maxAliasesShown {
		shown = shown[:maxAliasesShown]
		suffix = ", and more..."
	}
	return strings.Join(shown, ", ") + suffix
}

func addressOf(t game.Target) string {
	if p, ok := t.(*game.Player); ok {
		return p.Address
	}
	return ""
}

// shiftDuration consumes args[0] as a duration (game.ParseDuration
// falls back to its 1-hour default on a bad token, capped at
// game.TempbanCap) and treats the remainder as the ban reason.
func shiftDuration(args []string) (time.Duration, string, string) {
	if len(args) == 0 {
		d, human := game.ParseDuration("", game.TempbanCap)
		return d, human, "banned by an admin"
	}
	d, human := game.ParseDuration(args[0], game.TempbanCap)
	reason := joinReason(args[1:], "banned by an admin")
	return d, human, reason
}

func parseRoleName(s string) (game.Role, bool) {
	switch strings.ToLower(s) {
	case "guest":
		return game.RoleGuest, true
	case "user":
		return game.RoleUser, true
	case "regular":
		return game.RoleRegular, true
	case "mod", "moderator":
		return game.RoleModerator, true
	case "admin":
		return game.RoleAdmin, true
	case "fulladmin":
		return game.RoleFullAdmin, true
	case "senioradmin":
		return game.RoleSeniorAdmin, true
	case "superadmin":
		return game.RoleSuperAdmin, true
	case "headadmin":
		return game.RoleHeadAdmin, true
	default:
		return 0, false
	}
}

func parseTeamName(s string) (game.Team, bool) {
	switch strings.ToLower(s) {
	case "red", "r", "re":
		return game.TeamRed, true
	case "blue", "b", "bl", "blu":
		return game.TeamBlue, true
	case "spec", "spectator", "s", "sp", "spe":
		return game.TeamSpectator, true
	case "green":
		return game.TeamGreen, true
	default:
		return 0, false
	}
}

func teamRCONName(t game.Team) string {
	switch t {
	case game.TeamRed:
		return "red"
	case game.TeamBlue:
		return "blue"
	case game.TeamSpectator:
		return "spectator"
	default:
		return "green"
	}
}

func teamLockFor(t game.Team) game.TeamLock {
	switch t {
	case game.TeamRed:
		return game.TeamLockRed
	case game.TeamBlue:
		return game.TeamLockBlue
	case game.TeamSpectator:
		return game.TeamLockSpec
	default:
		return game.TeamLockNone
	}
}
