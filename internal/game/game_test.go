package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorldSlotAlwaysPresent(t *testing.T) {
	g := NewGame()
	require.NotNil(t, g.Player(WorldSlot))
	require.True(t, g.Player(WorldSlot).IsWorld())
}

func TestSlotIsolationOnDisconnect(t *testing.T) {
	g := NewGame()
	a := NewPlayer(5, "GUIDA", "Alice", "1.1.1.1")
	b := NewPlayer(6, "GUIDB", "Bob", "2.2.2.2")
	g.AddPlayer(a, nil)
	g.AddPlayer(b, nil)

	b.AddKilledMe(a.Slot)
	a.AddTKVictim(b.Slot)

	g.RemovePlayer(a.Slot)

	require.Nil(t, g.Player(a.Slot))
	require.NotContains(t, b.KilledMe, a.Slot)
}

type fakeCvarReader struct {
	value string
	err   error
}

func (f fakeCvarReader) Cvar(name string, timeout time.Duration, retries int) (string, error) {
	return f.value, f.err
}

func TestSetCurrentMapComputesNext(t *testing.T) {
	g := NewGame()
	g.Maplist = []string{"ut4_casa", "ut4_dust2_v2", "ut4_abbey"}

	g.SetCurrentMap(fakeCvarReader{value: "ut4_dust2_v2"}, time.Second)
	require.Equal(t, "ut4_dust2_v2", g.Mapname)
	require.Equal(t, "ut4_abbey", g.NextMapname)

	g.SetCurrentMap(fakeCvarReader{value: "ut4_abbey"}, time.Second)
	require.Equal(t, []string{"ut4_dust2_v2"}, g.LastMaps)
	require.Equal(t, "ut4_casa", g.NextMapname) // wraps at the end of the list
}

func TestSetCurrentMapFallsBackOnRconFailure(t *testing.T) {
	g := NewGame()
	g.NextMapname = "ut4_turnpike"
	g.SetCurrentMap(fakeCvarReader{err: assertErr{}}, time.Second)
	require.Equal(t, "ut4_turnpike", g.Mapname)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

func TestBalanceTeamsFairness(t *testing.T) {
	g := NewGame()
	var joinOrder []*Player
	for i := 0; i < 5; i++ {
		p := NewPlayer(i, "G", "P", "1.1.1.1")
		p.Team = TeamRed
		g.AddPlayer(p, nil)
		joinOrder = append([]*Player{p}, joinOrder...) // most-recent first
	}
	for i := 5; i < 7; i++ {
		p := NewPlayer(i, "G", "P", "1.1.1.1")
		p.Team = TeamBlue
		g.AddPlayer(p, nil)
	}

	decisions := g.BalanceTeams(joinOrder)
	require.Len(t, decisions, 1) // floor((5-2)/2) == 1
	require.Equal(t, TeamBlue, decisions[0].ToTeam)
	require.Equal(t, joinOrder[0].Slot, decisions[0].Player.Slot) // most-recent join moved first
}

func TestBalanceTeamsSkipsLockedPlayers(t *testing.T) {
	g := NewGame()
	var joinOrder []*Player
	for i := 0; i < 4; i++ {
		p := NewPlayer(i, "G", "P", "1.1.1.1")
		p.Team = TeamRed
		if i == 3 {
			p.TeamLock = TeamLockRed
		}
		g.AddPlayer(p, nil)
		joinOrder = append([]*Player{p}, joinOrder...)
	}
	p := NewPlayer(10, "G", "P", "1.1.1.1")
	p.Team = TeamBlue
	g.AddPlayer(p, nil)

	decisions := g.BalanceTeams(joinOrder)
	for _, d := range decisions {
		require.NotEqual(t, TeamLockRed, d.Player.TeamLock)
	}
}
