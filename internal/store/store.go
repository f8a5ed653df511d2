// Package store is the Persistence Gateway: a thin,
// parameterised-query wrapper over a local embedded SQLite database
// holding player identity, aggregate stats, ban records and the
// ban-point ledger. Every call takes a context and is safe to call only
// under the daemon's single Game lock — the gateway itself does no
// internal locking.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const maxAliases = 15

// Store wraps a SQLite handle for the moderation daemon's local tables.
type Store struct {
	db         *sql.DB
	banlistLog string // path to the append-only bot-banlist.txt audit file
}

// Open creates (or opens) the SQLite database at path, runs pending
// migrations and returns a ready Store. banlistLog may be empty to
// disable the informational append-only ban audit file.
func Open(ctx context.Context, path, banlistLog string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening store %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single embedded file, single writer

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging store %q: %w", path, err)
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, banlistLog: banlistLog}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// PlayerIdentity mirrors one row of the `player` identity table.
type PlayerIdentity struct {
	ID         int64
	Guid       string
	Name       string
	IPAddress  string
	TimeJoined time.Time
	Aliases    []string
}

// UpsertPlayer creates or refreshes the identity row for guid: the
// latest name/ip are stored and, on a name change, the previous name is
// appended to the distinct alias list (capped at maxAliases).
func (s *Store) UpsertPlayer(ctx context.Context, guid, name, ip string) (*PlayerIdentity, error) {
	existing, err := s.lookupPlayer(ctx, guid)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO player (guid, name, ip_address, time_joined, aliases) VALUES (?, ?, ?, ?, '')`,
			guid, name, ip, time.Now())
		if err != nil {
			return nil, fmt.Errorf("inserting player %q: %w", guid, err)
		}
		return s.lookupPlayer(ctx, guid)
	}

	aliases := existing.Aliases
	if existing.Name != "" && existing.Name != name && !containsFold(aliases, existing.Name) {
		if len(aliases) < maxAliases {
			aliases = append(aliases, existing.Name)
		}
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE player SET name = ?, ip_address = ?, aliases = ? WHERE guid = ?`,
		name, ip, encodeAliases(aliases), guid)
	if err != nil {
		return nil, fmt.Errorf("updating player %q: %w", guid, err)
	}
	existing.Name, existing.IPAddress, existing.Aliases = name, ip, aliases
	return existing, nil
}

func (s *Store) lookupPlayer(ctx context.Context, guid string) (*PlayerIdentity, error) {
	var p PlayerIdentity
	var aliases string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, guid, name, ip_address, time_joined, aliases FROM player WHERE guid = ?`, guid,
	).Scan(&p.ID, &p.Guid, &p.Name, &p.IPAddress, &p.TimeJoined, &aliases)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying player %q: %w", guid, err)
	}
	p.Aliases = decodeAliases(aliases)
	return &p, nil
}

// LookupPlayerByID resolves the `@<id>` command-target syntax against
// the player identity table's primary key, used to reach players who
// are no longer connected.
func (s *Store) LookupPlayerByID(ctx context.Context, id int64) (*PlayerIdentity, error) {
	var p PlayerIdentity
	var aliases string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, guid, name, ip_address, time_joined, aliases FROM player WHERE id = ?`, id,
	).Scan(&p.ID, &p.Guid, &p.Name, &p.IPAddress, &p.TimeJoined, &aliases)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying player id %d: %w", id, err)
	}
	p.Aliases = decodeAliases(aliases)
	return &p, nil
}

// LookupIdentity is an exported wrapper around lookupPlayer, used by
// command handlers (e.g. !aliases, !seen) that only need a guid's
// identity row rather than a full upsert round-trip.
func (s *Store) LookupIdentity(ctx context.Context, guid string) (*PlayerIdentity, error) {
	return s.lookupPlayer(ctx, guid)
}

// SearchPlayers returns up to limit player identity rows whose name
// contains query, most recently joined first, used by !lookup.
func (s *Store) SearchPlayers(ctx context.Context, query string, limit int) ([]PlayerIdentity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, guid, name, ip_address, time_joined, aliases FROM player WHERE name LIKE ? ORDER BY time_joined DESC LIMIT ?`,
		"%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("searching players for %q: %w", query, err)
	}
	defer rows.Close()

	var out []PlayerIdentity
	for rows.Next() {
		var p PlayerIdentity
		var aliases string
		if err := rows.Scan(&p.ID, &p.Guid, &p.Name, &p.IPAddress, &p.TimeJoined, &aliases); err != nil {
			return nil, fmt.Errorf("scanning player search row: %w", err)
		}
		p.Aliases = decodeAliases(aliases)
		out = append(out, p)
	}
	return out, rows.Err()
}

// AliasDisplay renders the alias set for `!aliases`, capping at
// maxAliases and appending the literal "and more..." marker.
func AliasDisplay(aliases []string) string {
	if len(aliases) == 0 {
		return "no known aliases"
	}
	shown := aliases
	suffix := ""
	if len(shown) > maxAliases {
		shown = shown[:maxAliases]
		suffix = ", and more..."
	}
	return strings.Join(shown, ", ") + suffix
}

func encodeAliases(a []string) string { return strings.Join(a, ",") }

func decodeAliases(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

// XLRStats mirrors one row of the aggregate-stats table.
type XLRStats struct {
	ID            int64
	Guid          string
	Name          string
	FirstSeen     time.Time
	LastPlayed    time.Time
	NumPlayed     int
	Kills         int
	Deaths        int
	Headshots     int
	TeamKills     int
	TeamDeath     int
	MaxKillStreak int
	Suicides      int
	AdminRole     int
}

// LookupXLRStats returns the aggregate row for guid, or nil if the
// player has never registered.
func (s *Store) LookupXLRStats(ctx context.Context, guid string) (*XLRStats, error) {
	var x XLRStats
	err := s.db.QueryRowContext(ctx,
		`SELECT id, guid, name, first_seen, last_played, num_played, kills, deaths,
		        headshots, team_kills, team_death, max_kill_streak, suicides, admin_role
		 FROM xlrstats WHERE guid = ?`, guid,
	).Scan(&x.ID, &x.Guid, &x.Name, &x.FirstSeen, &x.LastPlayed, &x.NumPlayed, &x.Kills, &x.Deaths,
		&x.Headshots, &x.TeamKills, &x.TeamDeath, &x.MaxKillStreak, &x.Suicides, &x.AdminRole)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying xlrstats %q: %w", guid, err)
	}
	return &x, nil
}

// RegisterUser inserts a new xlrstats row with the given admin role,
// used by register_user_db and !iamgod bootstrap.
func (s *Store) RegisterUser(ctx context.Context, guid, name string, role int) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO xlrstats (guid, name, ip_address, first_seen, last_played, admin_role)
		 VALUES (?, ?, '', ?, ?, ?)
		 ON CONFLICT(guid) DO UPDATE SET admin_role = excluded.admin_role`,
		guid, name, now, now, role)
	if err != nil {
		return fmt.Errorf("registering user %q: %w", guid, err)
	}
	return nil
}

// SetAdminRole updates only the admin_role column (!putgroup / !ungroup).
func (s *Store) SetAdminRole(ctx context.Context, guid string, role int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE xlrstats SET admin_role = ? WHERE guid = ?`, role, guid)
	if err != nil {
		return fmt.Errorf("setting admin role for %q: %w", guid, err)
	}
	return nil
}

// HasHeadAdmin reports whether any xlrstats row already holds the head
// admin role (100); used to gate !iamgod's one-shot bootstrap.
func (s *Store) HasHeadAdmin(ctx context.Context) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM xlrstats WHERE admin_role = 100`).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("counting head admins: %w", err)
	}
	return count > 0, nil
}

// FlushSessionStats persists end-of-session aggregate deltas onto the
// xlrstats row. No event handler in the daemon calls it, so session
// stats are not written back on ClientDisconnect or Exit.
func (s *Store) FlushSessionStats(ctx context.Context, guid string, kills, deaths, headshots, teamKills, teamDeath, maxKillStreak, suicides int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE xlrstats SET
			last_played = ?,
			num_played = num_played + 1,
			kills = kills + ?,
			deaths = deaths + ?,
			headshots = headshots + ?,
			team_kills = team_kills + ?,
			team_death = team_death + ?,
			max_kill_streak = MAX(max_kill_streak, ?),
			suicides = suicides + ?,
			ratio = CASE WHEN (deaths + ?) = 0 THEN (kills + ?) ELSE CAST((kills + ?) AS REAL) / (deaths + ?) END
		WHERE guid = ?`,
		time.Now(), kills, deaths, headshots, teamKills, teamDeath, maxKillStreak, suicides,
		deaths, kills, kills, deaths, guid)
	if err != nil {
		return fmt.Errorf("flushing session stats for %q: %w", guid, err)
	}
	return nil
}

// BanRecord mirrors one row of ban_list.
type BanRecord struct {
	ID        int64
	Guid      string
	Name      string
	IPAddress string
	Expires   time.Time
	Created   time.Time
	Reason    string
}

// LookupActiveBan returns the active ban (expires > now) matching guid
// or ip, preferring a guid match, or nil if none exists.
func (s *Store) LookupActiveBan(ctx context.Context, guid, ip string) (*BanRecord, error) {
	var b BanRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, guid, name, ip_address, expires, timestamp, reason
		FROM ban_list WHERE expires > ? AND (guid = ? OR ip_address = ?)
		ORDER BY (guid = ?) DESC LIMIT 1`,
		time.Now(), guid, ip, guid,
	).Scan(&b.ID, &b.Guid, &b.Name, &b.IPAddress, &b.Expires, &b.Created, &b.Reason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying active ban for %q/%q: %w", guid, ip, err)
	}
	return &b, nil
}

// Ban inserts or extends a ban row for guid. Monotonic: a later expiry
// replaces the stored row, an earlier one is rejected.
func (s *Store) Ban(ctx context.Context, guid, name, ip string, expires time.Time, reason string) error {
	existing, err := s.activeBanByGuid(ctx, guid)
	if err != nil {
		return err
	}
	now := time.Now()
	if existing == nil {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO ban_list (guid, name, ip_address, expires, timestamp, reason)
			VALUES (?, ?, ?, ?, ?, ?)`,
			guid, name, ip, expires, now, reason)
		if err != nil {
			return fmt.Errorf("inserting ban for %q: %w", guid, err)
		}
		s.appendBanlistFile(guid, name, reason, expires)
		return nil
	}
	if expires.Before(existing.Expires) {
		return nil // earlier expiry is rejected per the ban monotonicity invariant
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE ban_list SET name = ?, ip_address = ?, expires = ?, reason = ? WHERE id = ?`,
		name, ip, expires, reason, existing.ID)
	if err != nil {
		return fmt.Errorf("updating ban for %q: %w", guid, err)
	}
	s.appendBanlistFile(guid, name, reason, expires)
	return nil
}

// ListActiveBans returns up to limit active ban_list rows, most
// recently created first, used by !banlist.
func (s *Store) ListActiveBans(ctx context.Context, limit int) ([]BanRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, guid, name, ip_address, expires, timestamp, reason FROM ban_list
		 WHERE expires > ? ORDER BY timestamp DESC LIMIT ?`, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("listing active bans: %w", err)
	}
	defer rows.Close()

	var out []BanRecord
	for rows.Next() {
		var b BanRecord
		if err := rows.Scan(&b.ID, &b.Guid, &b.Name, &b.IPAddress, &b.Expires, &b.Created, &b.Reason); err != nil {
			return nil, fmt.Errorf("scanning ban row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) activeBanByGuid(ctx context.Context, guid string) (*BanRecord, error) {
	var b BanRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, guid, name, ip_address, expires, timestamp, reason
		FROM ban_list WHERE guid = ? AND expires > ? ORDER BY expires DESC LIMIT 1`,
		guid, time.Now(),
	).Scan(&b.ID, &b.Guid, &b.Name, &b.IPAddress, &b.Expires, &b.Created, &b.Reason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying active ban by guid %q: %w", guid, err)
	}
	return &b, nil
}

// Unban expires the ban_list row with the given id, used by !unban.
func (s *Store) Unban(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE ban_list SET expires = ? WHERE id = ?`, time.Unix(0, 0), id)
	if err != nil {
		return fmt.Errorf("unbanning %d: %w", id, err)
	}
	return nil
}

func (s *Store) appendBanlistFile(guid, name, reason string, expires time.Time) {
	if s.banlistLog == "" {
		return
	}
	f, err := os.OpenFile(s.banlistLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("failed to append bot-banlist audit file", "path", s.banlistLog, "error", err)
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s | %s (%s) | expires %s | %s\n", time.Now().Format(time.RFC3339), name, guid, expires.Format(time.RFC3339), reason)
}

// BanPoint mirrors one row of the ban_points strike ledger.
type BanPoint struct {
	ID        int64
	Guid      string
	PointType string
	Expires   time.Time
}

// AddBanPoint inserts a strike for guid and returns the ban duration
// (minutes) to apply when the non-expired count exceeds 2, or 0 minutes
// when no automatic ban should be triggered.
func (s *Store) AddBanPoint(ctx context.Context, guid, pointType string, duration time.Duration) (banMinutes int, err error) {
	expires := time.Now().Add(duration)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ban_points (guid, point_type, expires) VALUES (?, ?, ?)`,
		guid, pointType, expires)
	if err != nil {
		return 0, fmt.Errorf("inserting ban point for %q: %w", guid, err)
	}
	count, err := s.CountNonExpiredBanPoints(ctx, guid)
	if err != nil {
		return 0, err
	}
	if count > 2 {
		return int(duration.Minutes() * 3), nil
	}
	return 0, nil
}

// CountNonExpiredBanPoints counts ban_points rows for guid with
// expires in the future.
func (s *Store) CountNonExpiredBanPoints(ctx context.Context, guid string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ban_points WHERE guid = ? AND expires > ?`, guid, time.Now(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting ban points for %q: %w", guid, err)
	}
	return count, nil
}

// ClearBanPoints deletes all non-expired ban_points rows for guid; used
// by !warnclear.
func (s *Store) ClearBanPoints(ctx context.Context, guid string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM ban_points WHERE guid = ? AND expires > ?`, guid, time.Now())
	if err != nil {
		return fmt.Errorf("clearing ban points for %q: %w", guid, err)
	}
	return nil
}

// PurgeExpiredBanPoints deletes every expired ban_points row; run every
// two hours by the scheduler.
func (s *Store) PurgeExpiredBanPoints(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ban_points WHERE expires <= ?`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("purging expired ban points: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
