package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/spunkybot/urtadmind/internal/game"
	"github.com/spunkybot/urtadmind/internal/logfeed"
)

// maxDistinctTKVictims is the number of distinct teamkill victims a
// player may accumulate before an automatic ban replaces the warning
// ladder.
const maxDistinctTKVictims = 3

// tkBanDuration is how long a player is banned for teamkilling over the
// victim limit.
const tkBanDuration = 10 * time.Minute

// warnKickThreshold is the warning count at which the teamkill ladder
// broadcasts a kick alert; the spawn-kill guard kicks a player whose
// warning count exceeds it.
const warnKickThreshold = 3

// Actions is the outbound side effect surface the engine drives: chat
// broadcasts, private tells, RCON admin commands (kick/ban/smite) and
// persistence writes. Concrete implementations live in the daemon,
// keeping this package free of RCON/store imports.
type Actions interface {
	Broadcast(msg string)
	Tell(slot int, msg string)
	Kick(slot int, reason string)
	Smite(slot int)
	Ban(ctx context.Context, guid, name, ip string, d time.Duration, reason string) error
}

// Config is the subset of bot.* tuning knobs the engine consults.
type Config struct {
	TeamkillAutokick       bool
	SpawnkillAutokick      bool
	SpawnkillWarnTime      time.Duration
	InstantKillSpawnkiller bool
	KillSurvivedOpponents  bool
	AllowTeamsRoundEnd     bool
	BotsAllowed            bool
	ShowFirstKill          bool
	ShowMultiKill          bool
	BombDetonationSecs     int
}

// Engine applies kill/bomb/team-balance rules against a Game, emitting
// announcements and RCON effects through Actions.
type Engine struct {
	game      *game.Game
	actions   Actions
	announcer *Announcer
	cfg       Config
	cause     CauseMap

	firstBloodDone bool
	firstHEDone    bool
	firstKnifeDone bool
	firstTKDone    bool
}

// NewEngine builds an Engine bound to g. cfg is fixed at construction;
// ResetMatch reloads the cause table on every InitGame.
func NewEngine(g *game.Game, actions Actions, announcer *Announcer, cfg Config) *Engine {
	return &Engine{game: g, actions: actions, announcer: announcer, cfg: cfg, cause: NewCauseMap(g.ModVersion)}
}

// ResetMatch clears one-shot announcement state and reloads the cause
// table for the new ModVersion, called from the InitGame handler.
func (e *Engine) ResetMatch() {
	e.cause = NewCauseMap(e.game.ModVersion)
	e.firstBloodDone = false
	e.firstHEDone = false
	e.firstKnifeDone = false
	e.firstTKDone = false
}

// HandleKill applies the full kill-resolution pipeline for one Kill
// event: teamkill ladder, suicide detection, default kill/die,
// spawn-kill guard, and the multi-kill/streak/first-blood announcements.
func (e *Engine) HandleKill(ctx context.Context, ev logfeed.KillEvent, now time.Time) {
	victim := e.game.Player(ev.Victim)
	if victim == nil {
		return
	}
	victim.Alive = false

	var killer *game.Player
	if ev.Killer >= 0 {
		killer = e.game.Player(ev.Killer)
	}
	cause := e.cause.Resolve(ev.Cause)

	if e.handleTeamkill(ctx, killer, victim, cause, now) {
		victim.Die()
		return
	}

	if e.isSuicide(ev, killer, victim, cause) {
		victim.Suicide()
		victim.Die()
		return
	}

	if cause == CauseChangeTeam {
		return
	}

	if killer != nil {
		e.handleSpawnKill(killer, victim, now)
		killer.Kill(now)
		e.announceKill(killer, victim, cause)
	}
	victim.Die()
}

// handleTeamkill implements the teamkill-detection and forgiveness
// ladder. It returns true when the kill was classified as a teamkill
// (the caller should not run the default kill/die path).
func (e *Engine) handleTeamkill(ctx context.Context, killer, victim *game.Player, cause Cause, now time.Time) bool {
	if killer == nil || victim == nil || killer.Slot == victim.Slot {
		return false
	}
	if e.game.GameType.FFAOrLMS {
		return false
	}
	if killer.Team != victim.Team || killer.Team == game.TeamSpectator {
		return false
	}
	if cause == CauseBombed {
		return false
	}

	if !e.firstTKDone {
		e.firstTKDone = true
		e.actions.Broadcast(fmt.Sprintf("%s is a teamkiller!", killer.Name))
	}
	killer.TeamKill()
	victim.TeamDeath()

	humanVictim := !victim.IsBot() || e.cfg.BotsAllowed
	if killer.AdminRole < game.RoleRegular && e.cfg.TeamkillAutokick && humanVictim {
		killer.AddTKVictim(victim.Slot)
		victim.AddKilledMe(killer.Slot)
		e.actions.Tell(victim.Slot, fmt.Sprintf("Type !forgive %d to forgive %s", killer.Slot, killer.Name))

		if distinctTKVictims(killer.TKVictims) > maxDistinctTKVictims {
			e.actions.Kick(killer.Slot, "team killing over limit")
			_ = e.actions.Ban(ctx, killer.Guid, killer.Name, killer.Address, tkBanDuration, "team killing over limit")
		} else {
			killer.AddWarning("stop team killing", true, now)
			if len(killer.Warnings) == warnKickThreshold {
				e.actions.Broadcast(fmt.Sprintf("%s: stop team killing or you will be kicked!", killer.Name))
			}
		}
	}
	return true
}

func distinctTKVictims(victims []int) int {
	seen := make(map[int]bool, len(victims))
	for _, v := range victims {
		seen[v] = true
	}
	return len(seen)
}

func (e *Engine) isSuicide(ev logfeed.KillEvent, killer, victim *game.Player, cause Cause) bool {
	if IsSuicideCause(cause) {
		return true
	}
	if killer != nil && killer.Slot == victim.Slot && IsSelfInflictedWeapon(cause) {
		return true
	}
	return ev.Killer < 0 && killer == nil
}

// handleSpawnKill smites/warns killer when victim died within
// SpawnkillWarnTime of respawning.
func (e *Engine) handleSpawnKill(killer, victim *game.Player, now time.Time) {
	if victim.RespawnTime.IsZero() || now.Sub(victim.RespawnTime) >= e.cfg.SpawnkillWarnTime {
		return
	}
	if killer.AdminRole >= game.RoleRegular {
		return
	}
	if e.cfg.InstantKillSpawnkiller && e.game.ModVersion >= 42 {
		e.actions.Smite(killer.Slot)
		return
	}
	if !e.cfg.SpawnkillAutokick {
		return
	}
	killer.AddWarning("stop spawn killing", true, now)
	if len(killer.Warnings) > warnKickThreshold {
		e.actions.Kick(killer.Slot, "spawn killing")
	}
}

func (e *Engine) announceKill(killer, victim *game.Player, cause Cause) {
	if e.cfg.ShowFirstKill && !e.firstBloodDone {
		e.firstBloodDone = true
		e.announcer.FirstBlood(fmt.Sprintf("First blood: %s killed %s", killer.Name, victim.Name))
	}
	if !e.firstHEDone && cause == CauseHEGrenade {
		e.firstHEDone = true
		e.announcer.FirstBlood(fmt.Sprintf("%s drew first blood with the HE grenade!", killer.Name))
	}
	if !e.firstKnifeDone && (cause == CauseKnife || cause == CauseKnifeThrown) {
		e.firstKnifeDone = true
		e.announcer.FirstBlood(fmt.Sprintf("%s drew first blood with the knife!", killer.Name))
	}

	if e.cfg.ShowMultiKill {
		switch killer.MultiKill.Count {
		case 2:
			e.announcer.MultiKill(fmt.Sprintf("%s is on a killing spree!", killer.Name))
		case 3:
			e.announcer.MultiKill(fmt.Sprintf("%s is on a rampage!", killer.Name))
		case 4:
			e.announcer.MultiKill(fmt.Sprintf("%s is unstoppable!", killer.Name))
		}
	}

	switch killer.KillingStreak {
	case 5, 10, 15, 20:
		e.announcer.Streak(fmt.Sprintf("%s is on a %d-kill streak!", killer.Name, killer.KillingStreak))
	}
	if killer.Slot != victim.Slot {
		switch victim.MaxKillStreak {
		case 5, 10, 15, 20:
			e.announcer.Streak(fmt.Sprintf("%s's streak has ended by %s", victim.Name, killer.Name))
		}
	}
	if victim.LosingStreak >= 5 {
		e.announcer.Streak(fmt.Sprintf("%s hang in there!", victim.Name))
	}
}

// HandleBomb resolves the five bomb-prose events: holder tracking,
// plant/defuse/pop broadcasts, post-round smite and team-balance checks.
func (e *Engine) HandleBomb(ctx context.Context, ev logfeed.BombEvent) {
	holder := e.game.Player(ev.Slot)
	switch ev.Action {
	case logfeed.BombholderIs, logfeed.BombCollected:
		if holder != nil {
			holder.IsBombHolder = true
		}
	case logfeed.BombTossed:
		if holder != nil {
			holder.IsBombHolder = false
		}
		e.announcer.Award(fmt.Sprintf("%s dropped the bomb!", nameOr(holder, "Someone")))
	case logfeed.BombPlanted:
		if holder != nil {
			holder.BombPlanted++
		}
		e.announcer.Award(fmt.Sprintf("%s planted the bomb, %d seconds to detonation!", nameOr(holder, "Someone"), e.cfg.BombDetonationSecs))
	case logfeed.BombDefused:
		if holder != nil {
			holder.BombDefused++
		}
		e.announcer.Award(fmt.Sprintf("%s defused the bomb!", nameOr(holder, "Someone")))
		e.checkTeamBalance(game.TeamBlue)
		if e.cfg.KillSurvivedOpponents && e.game.ModVersion > 41 {
			e.smiteSurvivors(ctx, game.TeamRed)
		}
	}
}

// HandlePop resolves the bomb-exploded "Pop" line: a 1.3s settle delay,
// smiting the surviving blue team, then a red-side team-balance check.
// sleep is injected so tests can skip the real delay.
func (e *Engine) HandlePop(ctx context.Context, sleep func(time.Duration)) {
	if sleep != nil {
		sleep(1300 * time.Millisecond)
	}
	e.smiteSurvivors(ctx, game.TeamBlue)
	e.checkTeamBalance(game.TeamRed)
}

func (e *Engine) smiteSurvivors(_ context.Context, team game.Team) {
	for _, p := range e.game.ConnectedPlayers() {
		if p.Team == team && p.Alive {
			e.actions.Smite(p.Slot)
		}
	}
}

// checkTeamBalance is called after a bomb defuse and from HandlePop. It
// rebalances immediately when the team sizes differ by more than one;
// in TS, bomb and freeze modes with allow_teams_round_end set it returns
// without balancing, and nothing re-runs it later.
func (e *Engine) checkTeamBalance(_ game.Team) {
	red, blue := e.game.TeamCounts()
	diff := red - blue
	if diff < 0 {
		diff = -diff
	}
	if diff <= 1 {
		return
	}
	if e.game.GameType.TS || e.game.GameType.Bomb || e.game.GameType.Freeze {
		if e.cfg.AllowTeamsRoundEnd {
			return
		}
	}
	decisions := e.game.BalanceTeams(joinOrderByRespawn(e.game.ConnectedPlayers()))
	for _, d := range decisions {
		d.Player.Team = d.ToTeam
		e.actions.Tell(d.Player.Slot, "You have been moved to balance teams")
	}
}

func joinOrderByRespawn(players []*game.Player) []*game.Player {
	out := append([]*game.Player(nil), players...)
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].RespawnTime.After(out[i].RespawnTime) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

func nameOr(p *game.Player, fallback string) string {
	if p == nil {
		return fallback
	}
	return p.Name
}
