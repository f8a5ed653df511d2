package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCanonicalizeNameIdempotentAndBounded(t *testing.T) {
	raw := "^1Sp^2ooky ^3Bot  is  back"
	canon := CanonicalizeName(raw)
	require.NotContains(t, canon, " ")
	require.NotRegexp(t, `\^[0-9]`, canon)
	require.LessOrEqual(t, len(canon), maxNameLen)
	require.Equal(t, canon, CanonicalizeName(canon))
}

func TestKillDieStreakLaw(t *testing.T) {
	p := NewPlayer(0, "GUID1", "Alice", "1.2.3.4")
	now := time.Now()

	p.Kill(now)
	require.Equal(t, 1, p.KillingStreak)
	require.Equal(t, 0, p.MaxKillStreak)

	p.Kill(now.Add(time.Second))
	p.Kill(now.Add(2 * time.Second))
	require.Equal(t, 3, p.KillingStreak)

	p.Die()
	require.Equal(t, 3, p.MaxKillStreak)
	require.Equal(t, 0, p.KillingStreak)
	require.GreaterOrEqual(t, p.MaxKillStreak, 0)
}

func TestMultiKillWindow(t *testing.T) {
	p := NewPlayer(0, "GUID1", "Alice", "1.2.3.4")
	base := time.Now()
	p.Kill(base)
	require.Equal(t, 1, p.MultiKill.Count)
	p.Kill(base.Add(2 * time.Second))
	require.Equal(t, 2, p.MultiKill.Count)
	p.Kill(base.Add(10 * time.Second))
	require.Equal(t, 1, p.MultiKill.Count)
}

func TestForgiveRemovesOneTKWarning(t *testing.T) {
	killer := NewPlayer(1, "KGUID", "Killer", "1.2.3.4")
	victim := NewPlayer(2, "VGUID", "Victim", "1.2.3.5")

	killer.AddWarning("stop team killing", true, time.Now())
	victim.AddKilledMe(killer.Slot)
	killer.AddTKVictim(victim.Slot)

	victim.Forgive(killer.Slot, killer)

	require.NotContains(t, victim.KilledMe, killer.Slot)
	require.NotContains(t, killer.Warnings, "stop team killing")
}

func TestClearLastWarningPopsTKVictim(t *testing.T) {
	p := NewPlayer(0, "GUID1", "Alice", "1.2.3.4")
	p.AddWarning("stop team killing", true, time.Now())
	p.AddTKVictim(5)

	p.ClearLastWarning()

	require.Empty(t, p.Warnings)
	require.Empty(t, p.TKVictims)
}

func TestWarningExpiry(t *testing.T) {
	p := NewPlayer(0, "GUID1", "Alice", "1.2.3.4")
	now := time.Now()
	p.AddWarning("fix your ping", true, now.Add(-10*time.Minute))

	require.False(t, p.WarningActive(4*time.Minute, now))
	p.ExpireWarnings(4*time.Minute, now)
	require.Empty(t, p.Warnings)
}

func TestAdminRoleValidation(t *testing.T) {
	for _, v := range []int{0, 1, 2, 20, 40, 60, 80, 90, 100} {
		require.True(t, ValidRole(v), v)
	}
	require.False(t, ValidRole(50))
}
