package game

import (
	"time"
)

const lastMapsRingSize = 4

// GameType flags are mutually exclusive; at most one is true.
type GameType struct {
	FFAOrLMS bool
	CTF      bool
	TS       bool
	TDM      bool
	Bomb     bool
	Freeze   bool
}

// MapCvarReader is the minimal RCON surface Game needs to read the
// currently running map, decoupling the model from the transport.
type MapCvarReader interface {
	Cvar(name string, timeout time.Duration, retries int) (string, error)
}

// Game is the single shared game-state record: current map,
// rotation, gametype flags and the slot-indexed player table. All
// mutation happens under the daemon's single players lock.
type Game struct {
	Mapname     string
	NextMapname string
	Maplist     []string
	LastMaps    []string

	GameType        GameType
	ModVersion      int
	DefaultGear     string
	BombDetonationSecs int

	Live bool

	slots map[int]*Player
}

// NewGame constructs an empty Game with the World sentinel already
// present in the slot table: slot 1022 is always present and immutable.
func NewGame() *Game {
	g := &Game{slots: make(map[int]*Player)}
	g.slots[WorldSlot] = NewWorldPlayer()
	return g
}

// AddPlayer inserts p into the slot table. identityHook, if non-nil, is
// invoked for any non-World player so the caller can refresh identity
// rows in the persistence gateway.
func (g *Game) AddPlayer(p *Player, identityHook func(*Player)) {
	g.slots[p.Slot] = p
	if !p.IsWorld() && p.Address != "0.0.0.0" && identityHook != nil {
		identityHook(p)
	}
}

// RemovePlayer evicts slot from the table and purges every other
// player's TK/killed-me/grudge references to it, so a departed slot
// number can't be mistaken for a live player once it's reused.
func (g *Game) RemovePlayer(slot int) {
	delete(g.slots, slot)
	for _, other := range g.slots {
		other.TKVictims = removeAll(other.TKVictims, slot)
		other.KilledMe = removeAll(other.KilledMe, slot)
		delete(other.Grudged, slot)
	}
}

// Player returns the slot's occupant, or nil if the slot is empty.
func (g *Game) Player(slot int) *Player {
	return g.slots[slot]
}

// Players returns every connected player including World.
func (g *Game) Players() []*Player {
	out := make([]*Player, 0, len(g.slots))
	for _, p := range g.slots {
		out = append(out, p)
	}
	return out
}

// ConnectedPlayers returns every player except the World sentinel.
func (g *Game) ConnectedPlayers() []*Player {
	out := make([]*Player, 0, len(g.slots))
	for _, p := range g.slots {
		if !p.IsWorld() {
			out = append(out, p)
		}
	}
	return out
}

// SetCurrentMap reads the running map via RCON (falling back to the
// previously computed NextMapname on failure), pushes the previous
// mapname onto the bounded LastMaps ring, and recomputes NextMapname
// from Maplist.
func (g *Game) SetCurrentMap(rconReader MapCvarReader, timeout time.Duration) {
	newMap := g.NextMapname
	if rconReader != nil {
		if v, err := rconReader.Cvar("mapname", timeout, 2); err == nil && v != "" {
			newMap = v
		}
	}
	if g.Mapname != "" {
		g.LastMaps = append(g.LastMaps, g.Mapname)
		if len(g.LastMaps) > lastMapsRingSize {
			g.LastMaps = g.LastMaps[len(g.LastMaps)-lastMapsRingSize:]
		}
	}
	g.Mapname = newMap
	g.NextMapname = g.computeNextMap(newMap)
}

func (g *Game) computeNextMap(current string) string {
	if len(g.Maplist) == 0 {
		return current
	}
	for i, m := range g.Maplist {
		if m == current {
			if i+1 < len(g.Maplist) {
				return g.Maplist[i+1]
			}
			return g.Maplist[0]
		}
	}
	return g.Maplist[0]
}

// AllMaps returns a copy of the current map rotation, used by !maps.
func (g *Game) AllMaps() []string {
	return append([]string(nil), g.Maplist...)
}

// NextMap returns the map the rotation will switch to next, used by
// !nextmap.
func (g *Game) NextMap() string {
	return g.NextMapname
}

// TeamCounts reports the number of non-spectator players per team.
func (g *Game) TeamCounts() (red, blue int) {
	for _, p := range g.ConnectedPlayers() {
		switch p.Team {
		case TeamRed:
			red++
		case TeamBlue:
			blue++
		}
	}
	return
}

// MoveDecision pairs a player with the team they're being forced onto.
type MoveDecision struct {
	Player *Player
	ToTeam Team
}

// BalanceTeams computes which players to move to rebalance red/blue,
// moving floor((|A|-|B|)/2) players from the larger team to the
// smaller one, most-recently-joined first, skipping team-locked
// players. joinOrder orders
// connected players from most-recent join to least-recent.
func (g *Game) BalanceTeams(joinOrder []*Player) []MoveDecision {
	red, blue := g.TeamCounts()
	larger, smaller := TeamRed, TeamBlue
	diff := red - blue
	if diff < 0 {
		larger, smaller = TeamBlue, TeamRed
		diff = -diff
	}
	toMove := diff / 2
	if toMove == 0 {
		return nil
	}

	var decisions []MoveDecision
	for _, p := range joinOrder {
		if len(decisions) >= toMove {
			break
		}
		if p.Team != larger || p.TeamLock != TeamLockNone {
			continue
		}
		decisions = append(decisions, MoveDecision{Player: p, ToTeam: smaller})
	}
	return decisions
}

// RefreshMapList recomputes Maplist from a dynamic mapcycle per the
// number of connected (non-spectator) players: below switchCount uses
// smallCycle, at/above uses bigCycle.
func (g *Game) RefreshMapList(dynamic bool, bigCycle, smallCycle []string, switchCount int) {
	if !dynamic {
		return
	}
	red, blue := g.TeamCounts()
	if red+blue >= switchCount {
		g.Maplist = append([]string(nil), bigCycle...)
	} else {
		g.Maplist = append([]string(nil), smallCycle...)
	}
}

// ResetMatchStats clears the volatile session stats carried across a
// match boundary (InitGame handler). Persistent DB* fields survive.
func ResetMatchStats(p *Player) {
	p.Kills, p.Deaths, p.Headshots, p.AllHits = 0, 0, 0, 0
	p.Hits = HitZones{}
	p.HEKills, p.KnifeKills = 0, 0
	p.KillingStreak, p.MaxKillStreak, p.LosingStreak = 0, 0, 0
	p.MultiKill = MultiKillWindow{}
	p.FlagsCaptured, p.FlagsReturned, p.FastestFlagCaptureSecs = 0, 0, 0
	p.IsBombHolder, p.BombCarrierKills, p.KillsWithBomb = false, 0, 0
	p.BombPlanted, p.BombDefused = 0, 0
	p.Freezes, p.Thawouts = 0, 0
}
