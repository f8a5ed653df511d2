// Package schedule drives the daemon's periodic tasks: warning expiry,
// spectator/ping/score checks, ban-point cleanup and the rotating
// rules-of-the-day broadcaster. Each task is a closure run by its own
// ticker, the same one-ticker-per-loop shape the rest of this codebase
// uses for background workers.
package schedule

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spunkybot/urtadmind/internal/game"
)

const banPointCleanupInterval = 2 * time.Hour

// rulesInitialDelay is how long the rules broadcaster waits after
// startup before its first line, giving players time to connect.
const rulesInitialDelay = 30 * time.Second

// Store is the subset of the persistence gateway the scheduler needs.
type Store interface {
	PurgeExpiredBanPoints(ctx context.Context) (int64, error)
}

// StatusSource supplies the live RCON ping snapshot keyed by slot.
type StatusSource interface {
	PingForSlot(slot int) (ping int, ok bool)
}

// Actions is the outbound surface the scheduler drives.
type Actions interface {
	Kick(slot int, reason string)
	Broadcast(msg string)
	BigText(msg string)
	Raw(cmd string)
}

// PlayerTasksConfig mirrors the bot.* knobs the per-player pass reads.
type PlayerTasksConfig struct {
	WarnExpiration    time.Duration
	WarnKickThreshold int // kick when len(Warnings) exceeds this and admin_role < KickAdminCeiling
	KickAdminCeiling  game.Role
	NumKickSpecs      int
	SpecGraceJoin     time.Duration
	NoobAutokick      bool
	MaxPing           int
	AdminImmunity     game.Role
}

// Scheduler owns the recurring task tickers. Every tick acquires the
// caller-supplied lock function before touching the Game.
type Scheduler struct {
	g          *game.Game
	store      Store
	statusSrc  StatusSource
	actions    Actions
	cfg        PlayerTasksConfig
	rulesLines []string
	rulesIdx   int
	rulesDisp  string

	withLock func(func())
}

// New builds a Scheduler. withLock must run fn while holding the
// daemon's single players lock.
func New(g *game.Game, store Store, statusSrc StatusSource, actions Actions, cfg PlayerTasksConfig, withLock func(func())) *Scheduler {
	return &Scheduler{g: g, store: store, statusSrc: statusSrc, actions: actions, cfg: cfg, withLock: withLock}
}

// LoadRules sets the rotating rules-of-the-day lines and the display
// mode ("chat", "bigtext" or "raw").
func (s *Scheduler) LoadRules(lines []string, display string) {
	s.rulesLines = lines
	s.rulesDisp = display
}

// RunPlayerTasks drives the per-player scheduler pass at interval until
// ctx is canceled.
func (s *Scheduler) RunPlayerTasks(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.withLock(func() { s.playerPass(now) })
		}
	}
}

func (s *Scheduler) playerPass(now time.Time) {
	for _, p := range s.g.ConnectedPlayers() {
		p.ExpireWarnings(s.cfg.WarnExpiration, now)

		if len(p.Warnings) > s.cfg.WarnKickThreshold && p.AdminRole < s.cfg.KickAdminCeiling {
			reason := "warned too many times"
			if n := len(p.Warnings); n > 0 {
				reason = p.Warnings[n-1]
			}
			s.actions.Kick(p.Slot, reason)
			continue
		}

		if s.cfg.NumKickSpecs > 0 && p.AdminRole < game.RoleModerator &&
			p.Team == game.TeamSpectator && !p.RespawnTime.IsZero() && now.Sub(p.RespawnTime) > s.cfg.SpecGraceJoin {
			p.AddWarning("spectator", true, now)
		}

		if s.cfg.NoobAutokick && p.Kills > 0 {
			deaths := p.Deaths
			if deaths == 0 {
				deaths = 1
			}
			ratio := float64(p.Kills) / float64(deaths)
			if ratio < 0.33 {
				p.AddWarning("score too low", true, now)
			}
		}

		if len(p.Warnings) == 3 {
			s.actions.Broadcast(p.Name + ": you are about to be kicked, heed the warnings")
		}

		if s.statusSrc != nil && p.AdminRole < s.cfg.AdminImmunity {
			if ping, ok := s.statusSrc.PingForSlot(p.Slot); ok && ping > s.cfg.MaxPing && ping < 999 {
				p.AddWarning("fix your ping", false, now)
				p.PingValue = ping
			}
		}
	}
}

// RunBanPointCleanup deletes expired ban_points rows every 2 hours
// until ctx is canceled.
func (s *Scheduler) RunBanPointCleanup(ctx context.Context) error {
	ticker := time.NewTicker(banPointCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.store.PurgeExpiredBanPoints(ctx)
			if err != nil {
				slog.Warn("purging expired ban points", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged expired ban points", "count", n)
			}
		}
	}
}

// RunRulesBroadcaster emits the next rules.conf line every interval,
// starting rulesInitialDelay after launch, until ctx is canceled.
func (s *Scheduler) RunRulesBroadcaster(ctx context.Context, interval time.Duration) error {
	if len(s.rulesLines) == 0 {
		<-ctx.Done()
		return nil
	}
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(rulesInitialDelay):
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.emitNextRule()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.emitNextRule()
		}
	}
}

func (s *Scheduler) emitNextRule() {
	if len(s.rulesLines) == 0 {
		return
	}
	line := s.expandMagic(s.rulesLines[s.rulesIdx])
	s.rulesIdx = (s.rulesIdx + 1) % len(s.rulesLines)

	switch s.rulesDisp {
	case "bigtext":
		s.actions.BigText(line)
	case "raw":
		s.actions.Raw(line)
	default:
		s.actions.Broadcast(line)
	}
}

// expandMagic substitutes the rules.conf magic tokens @admins,
// @admincount, @nextmap, @time and @bigtext.
func (s *Scheduler) expandMagic(line string) string {
	if strings.Contains(line, "@admins") {
		var names []string
		for _, p := range s.g.ConnectedPlayers() {
			if p.AdminRole >= game.RoleModerator {
				names = append(names, p.Name)
			}
		}
		if len(names) == 0 {
			names = []string{"none online"}
		}
		line = strings.ReplaceAll(line, "@admins", strings.Join(names, ", "))
	}
	if strings.Contains(line, "@admincount") {
		count := 0
		for _, p := range s.g.ConnectedPlayers() {
			if p.AdminRole >= game.RoleModerator {
				count++
			}
		}
		line = strings.ReplaceAll(line, "@admincount", strconv.Itoa(count))
	}
	line = strings.ReplaceAll(line, "@nextmap", s.g.NextMapname)
	line = strings.ReplaceAll(line, "@time", time.Now().Format("15:04"))
	line = strings.ReplaceAll(line, "@bigtext", "")
	return line
}
