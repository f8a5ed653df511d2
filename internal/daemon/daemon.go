// Package daemon owns the single Game lock and wires the log tailer,
// RCON dispatcher, persistence gateway, policy engine, scheduler and
// command dispatcher into one running process. No free functions touch
// global state; every component is constructed here and handed a
// *Daemon-scoped collaborator instead.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spunkybot/urtadmind/internal/commands"
	"github.com/spunkybot/urtadmind/internal/config"
	"github.com/spunkybot/urtadmind/internal/game"
	"github.com/spunkybot/urtadmind/internal/logfeed"
	"github.com/spunkybot/urtadmind/internal/policy"
	"github.com/spunkybot/urtadmind/internal/rcon"
	"github.com/spunkybot/urtadmind/internal/schedule"
	"github.com/spunkybot/urtadmind/internal/store"
)

// Daemon holds every long-lived collaborator and the single mutex
// guarding Game mutation. All background loops and the tailer's
// OnLine callback take this lock before touching Game.
type Daemon struct {
	cfg *config.Config

	mu   sync.Mutex
	game *game.Game

	store      *store.Store
	client     *rcon.Client
	dispatcher *rcon.Dispatcher
	tailer     *logfeed.Tailer

	policy     *policy.Engine
	scheduler  *schedule.Scheduler
	commands   *commands.Dispatcher
}

// New wires every collaborator together from an already-loaded config,
// an opened store and a dialed RCON client. It does not start any
// background loop; call Run for that.
func New(cfg *config.Config, st *store.Store, client *rcon.Client) *Daemon {
	g := game.NewGame()

	disp := rcon.NewDispatcher(client, rcon.DefaultDelay)

	d := &Daemon{
		cfg:        cfg,
		game:       g,
		store:      st,
		client:     client,
		dispatcher: disp,
		tailer:     logfeed.NewTailer(cfg.Server.LogFile),
	}

	actions := &rconActions{d: d}
	announcer := policy.NewAnnouncer(actions, policy.SpamConfig{
		Announce:   cfg.Bot.SpamAnnounceMsg,
		FirstBlood: cfg.Bot.SpamFirstBloodMsg,
		MultiKill:  cfg.Bot.SpamMultiKillMsg,
		Streak:     cfg.Bot.SpamStreakMsg,
		Headshot:   cfg.Bot.SpamHeadshotMsg,
		Awards:     cfg.Bot.SpamAwardsMsg,
	})
	d.policy = policy.NewEngine(g, actions, announcer, policy.Config{
		TeamkillAutokick:       cfg.Bot.TeamkillAutokick,
		SpawnkillAutokick:      cfg.Bot.SpawnkillAutokick,
		SpawnkillWarnTime:      time.Duration(cfg.Bot.SpawnkillWarnTime) * time.Second,
		InstantKillSpawnkiller: cfg.Bot.InstantKillSpawnkiller,
		KillSurvivedOpponents:  cfg.Bot.KillSurvivedOpponents,
		AllowTeamsRoundEnd:     cfg.Bot.AllowTeamsRoundEnd,
		BotsAllowed:            cfg.Bot.BotsAllowed,
		ShowFirstKill:          cfg.Bot.ShowFirstKill,
		ShowMultiKill:          cfg.Bot.ShowMultiKill,
		BombDetonationSecs:     g.BombDetonationSecs,
	})

	d.scheduler = schedule.New(g, &banPointStore{st}, &statusSource{client, g}, actions, schedule.PlayerTasksConfig{
		WarnExpiration:    time.Duration(cfg.Bot.WarnExpiration) * time.Second,
		WarnKickThreshold: 3,
		KickAdminCeiling:  game.Role(cfg.Bot.AdminImmunity),
		NumKickSpecs:      cfg.Bot.NumKickSpecs,
		SpecGraceJoin:     30 * time.Second,
		NoobAutokick:      cfg.Bot.NoobAutokick,
		MaxPing:           cfg.Bot.MaxPing,
		AdminImmunity:     game.Role(cfg.Bot.AdminImmunity),
	}, d.withLock)

	d.commands = commands.New(g, &offlineStore{st}, &cmdStore{st}, actions, commands.Config{
		DefaultBanDuration: time.Duration(cfg.Bot.BanDurationDays) * 24 * time.Hour,
	})

	d.tailer.OnLine = d.handleLine
	d.tailer.OnLive = disp.GoLive

	return d
}

// LoadRulesFile reads path as one rules-of-the-day message per
// non-empty line and loads it into the rotating broadcaster. Called
// once at startup; a missing file just leaves the broadcaster idle.
func (d *Daemon) LoadRulesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading rules file %q: %w", path, err)
	}
	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	d.scheduler.LoadRules(lines, d.cfg.Rules.Display)
	return nil
}

// withLock runs fn while holding the players lock, the single
// synchronization point every background loop and event handler shares.
func (d *Daemon) withLock(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// Run starts the RCON dispatcher, log tailer and every background
// scheduler loop in parallel, returning when ctx is canceled or any
// loop returns a non-nil error.
func (d *Daemon) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting rcon dispatcher")
		return d.dispatcher.Run(gctx)
	})

	g.Go(func() error {
		ev, offset, ok, err := d.tailer.LastInitGame()
		if err != nil {
			return fmt.Errorf("scanning for last InitGame: %w", err)
		}
		if ok {
			d.withLock(func() { d.applyInitGame(ev.Payload) })
		}
		slog.Info("starting log tailer", "file", d.cfg.Server.LogFile)
		return d.tailer.Run(gctx, offset)
	})

	g.Go(func() error {
		return d.scheduler.RunPlayerTasks(gctx, d.cfg.TaskInterval())
	})
	g.Go(func() error {
		return d.scheduler.RunBanPointCleanup(gctx)
	})
	g.Go(func() error {
		if !d.cfg.Rules.ShowRules {
			<-gctx.Done()
			return nil
		}
		return d.scheduler.RunRulesBroadcaster(gctx, d.cfg.RulesInterval())
	})

	return g.Wait()
}

// handleLine is the tailer's OnLine callback: it takes the players
// lock and routes each event to the policy engine, the command
// dispatcher or direct Game mutation.
func (d *Daemon) handleLine(ev logfeed.Event) {
	d.withLock(func() { d.dispatchEvent(ev) })
}

func (d *Daemon) dispatchEvent(ev logfeed.Event) {
	ctx := context.Background()
	switch ev.Type {
	case logfeed.EventInitGame:
		d.applyInitGame(ev.Payload)

	case logfeed.EventClientUserinfo:
		info, err := logfeed.ParseClientUserinfo(ev.Payload)
		if err != nil {
			return
		}
		p := d.game.Player(info.Slot)
		if p == nil {
			p = game.NewPlayer(info.Slot, info.Guid, info.Name, info.Address)
		} else {
			p.Guid, p.Address = info.Guid, info.Address
			p.SetName(info.Name)
		}
		p.Authname = info.Authname
		d.game.AddPlayer(p, func(pl *game.Player) {
			if _, err := d.store.UpsertPlayer(ctx, pl.Guid, pl.Name, pl.Address); err != nil {
				slog.Warn("upserting player identity", "guid", pl.Guid, "error", err)
			}
			if x, err := d.store.LookupXLRStats(ctx, pl.Guid); err == nil && x != nil {
				pl.AdminRole = game.Role(x.AdminRole)
			}
		})

	case logfeed.EventClientUserinfoChanged:
		c, err := logfeed.ParseClientUserinfoChanged(ev.Payload)
		if err != nil {
			return
		}
		if p := d.game.Player(c.Slot); p != nil {
			p.SetName(c.Name)
			p.Team = game.Team(c.Team)
			var locked game.Team
			switch p.TeamLock {
			case game.TeamLockRed:
				locked = game.TeamRed
			case game.TeamLockBlue:
				locked = game.TeamBlue
			case game.TeamLockSpec:
				locked = game.TeamSpectator
			}
			if p.TeamLock != game.TeamLockNone && p.Team != locked {
				p.Team = locked
				d.dispatcher.Enqueue(fmt.Sprintf("forceteam %d %s", p.Slot, string(p.TeamLock)))
			}
		}

	case logfeed.EventClientSpawn:
		slot, err := logfeed.ParseSlotOnly(ev.Payload)
		if err == nil {
			if p := d.game.Player(slot); p != nil {
				p.RespawnTime = time.Now()
				p.Alive = true
			}
		}

	case logfeed.EventClientDisconnect:
		slot, err := logfeed.ParseSlotOnly(ev.Payload)
		if err == nil {
			d.game.RemovePlayer(slot)
		}

	case logfeed.EventKill:
		kev, err := logfeed.ParseKill(ev.Payload)
		if err == nil {
			d.policy.HandleKill(ctx, kev, time.Now())
		}

	case logfeed.EventBomb:
		bev, err := logfeed.ParseBomb(ev.Payload)
		if err == nil {
			d.policy.HandleBomb(ctx, bev)
		}

	case logfeed.EventPop:
		d.policy.HandlePop(ctx, time.Sleep)

	case logfeed.EventSay, logfeed.EventSayTeam:
		say, err := logfeed.ParseSay(ev.Payload)
		if err != nil {
			return
		}
		if !strings.HasPrefix(strings.TrimSpace(say.Text), "!") {
			return
		}
		caller := d.game.Player(say.Slot)
		if caller == nil {
			return
		}
		if reply := d.commands.Dispatch(ctx, caller, say.Text); reply != "" {
			d.dispatcher.Enqueue(fmt.Sprintf(`tell %d "%s"`, caller.Slot, reply))
		}
	}
}

func (d *Daemon) applyInitGame(payload string) {
	info := logfeed.ParseInitGame(payload)
	d.game.ModVersion = info.ModVersion
	d.game.DefaultGear = info.DefaultGear
	d.game.Mapname = info.Mapname
	d.game.SetCurrentMap(d.client, 2*time.Second)
	d.game.RefreshMapList(d.cfg.Mapcycle.DynamicMapcycle,
		splitMapList(d.cfg.Mapcycle.BigCycle), splitMapList(d.cfg.Mapcycle.SmallCycle), d.cfg.Mapcycle.SwitchCount)
	d.policy.ResetMatch()
	for _, p := range d.game.ConnectedPlayers() {
		game.ResetMatchStats(p)
	}
}

// splitMapList parses mapcycle.big_cycle/small_cycle's comma-separated
// map name list.
func splitMapList(raw string) []string {
	var out []string
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}
