package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(context.Background(), filepath.Join(dir, "bot.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertPlayerTracksAliases(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p, err := s.UpsertPlayer(ctx, "GUID1", "Alice", "1.2.3.4")
	require.NoError(t, err)
	require.Equal(t, "Alice", p.Name)
	require.Empty(t, p.Aliases)

	p, err = s.UpsertPlayer(ctx, "GUID1", "Alicia", "1.2.3.4")
	require.NoError(t, err)
	require.Equal(t, "Alicia", p.Name)
	require.Equal(t, []string{"Alice"}, p.Aliases)
}

func TestBanMonotonicity(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	now := time.Now()
	require.NoError(t, s.Ban(ctx, "GUID1", "Alice", "1.2.3.4", now.Add(60*time.Second), "tk"))

	b, err := s.LookupActiveBan(ctx, "GUID1", "")
	require.NoError(t, err)
	require.NotNil(t, b)
	firstExpires := b.Expires

	// S3: an earlier expiry must not shrink the stored ban.
	require.NoError(t, s.Ban(ctx, "GUID1", "Alice", "1.2.3.4", now.Add(30*time.Second), "tk"))
	b, err = s.LookupActiveBan(ctx, "GUID1", "")
	require.NoError(t, err)
	require.WithinDuration(t, firstExpires, b.Expires, time.Second)

	// A later expiry replaces it.
	require.NoError(t, s.Ban(ctx, "GUID1", "Alice", "1.2.3.4", now.Add(300*time.Second), "tk"))
	b, err = s.LookupActiveBan(ctx, "GUID1", "")
	require.NoError(t, err)
	require.WithinDuration(t, now.Add(300*time.Second), b.Expires, time.Second)
}

func TestBanPointTriggersAutomaticBan(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		minutes, err := s.AddBanPoint(ctx, "GUID1", "tk", time.Hour)
		require.NoError(t, err)
		require.Zero(t, minutes)
	}

	minutes, err := s.AddBanPoint(ctx, "GUID1", "tk", time.Hour)
	require.NoError(t, err)
	require.Equal(t, 180, minutes) // 3x the fourth entry's 60 minute duration

	count, err := s.CountNonExpiredBanPoints(ctx, "GUID1")
	require.NoError(t, err)
	require.Equal(t, 4, count)
}

func TestClearBanPointsRemovesNonExpired(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.AddBanPoint(ctx, "GUID1", "tk", time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.ClearBanPoints(ctx, "GUID1"))

	count, err := s.CountNonExpiredBanPoints(ctx, "GUID1")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestRegisterUserAndHasHeadAdmin(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	has, err := s.HasHeadAdmin(ctx)
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, s.RegisterUser(ctx, "GUID1", "Alice", 100))

	has, err = s.HasHeadAdmin(ctx)
	require.NoError(t, err)
	require.True(t, has)
}

func TestAliasDisplay(t *testing.T) {
	require.Equal(t, "no known aliases", AliasDisplay(nil))
	require.Equal(t, "a, b", AliasDisplay([]string{"a", "b"}))

	many := make([]string, maxAliases+3)
	for i := range many {
		many[i] = "n"
	}
	require.Contains(t, AliasDisplay(many), "and more...")
}
