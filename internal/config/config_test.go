package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesFileOverOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.conf")
	contents := `
[server]
log_file = /srv/ut/games_mp.log
server_ip = 127.0.0.1
port = 27960
rcon_password = secret

[bot]
max_ping = 150
admin_immunity = 80

[rules]
rules_frequency = 45
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "/srv/ut/games_mp.log", cfg.Server.LogFile)
	require.Equal(t, 27960, cfg.Server.Port)
	require.Equal(t, 150, cfg.Bot.MaxPing)
	require.Equal(t, 80, cfg.Bot.AdminImmunity)
	// fields omitted from the file keep their built-in default
	require.True(t, cfg.Bot.TeamkillAutokick)
	require.Equal(t, 240, cfg.Bot.WarnExpiration)
	require.Equal(t, 45, cfg.Rules.RulesFrequency)
}

func TestTaskIntervalClampsFloor(t *testing.T) {
	cfg := Default()
	cfg.Bot.TaskFrequency = 3
	require.Equal(t, 10_000_000_000, int(cfg.TaskInterval()))
}

func TestRulesIntervalClampsFloor(t *testing.T) {
	cfg := Default()
	cfg.Rules.RulesFrequency = 1
	require.Equal(t, 5_000_000_000, int(cfg.RulesInterval()))
}
