// Package config loads the daemon's INI configuration file.
package config

import (
	"fmt"
	"time"

	"github.com/go-ini/ini"
)

// Server holds connection details for the tailed game server.
type Server struct {
	LogFile      string `ini:"log_file"`
	IP           string `ini:"server_ip"`
	Port         int    `ini:"port"`
	RconPassword string `ini:"rcon_password"`
}

// Bot holds moderation and policy tuning knobs.
type Bot struct {
	TeamkillAutokick          bool `ini:"teamkill_autokick"`
	MaxPing                   int  `ini:"max_ping"`
	TaskFrequency             int  `ini:"task_frequency"`
	WarnExpiration            int  `ini:"warn_expiration"`
	AdminImmunity             int  `ini:"admin_immunity"`
	KickSpecFullServer        int  `ini:"kick_spec_full_server"`
	Autobalancer              bool `ini:"autobalancer"`
	AllowTeamsRoundEnd        bool `ini:"allow_teams_round_end"`
	SpawnkillAutokick         bool `ini:"spawnkill_autokick"`
	SpawnkillWarnTime         int  `ini:"spawnkill_warn_time"`
	InstantKillSpawnkiller    bool `ini:"instant_kill_spawnkiller"`
	BanDurationDays           int  `ini:"ban_duration_days"`
	ShowCountryOnConnect      bool `ini:"show_country_on_connect"`
	ShowFirstKill             bool `ini:"show_first_kill"`
	ShowMultiKill             bool `ini:"show_multi_kill"`
	NoobAutokick              bool `ini:"noob_autokick"`
	NumKickSpecs              int  `ini:"num_kick_specs"`
	KillSurvivedOpponents     bool `ini:"kill_survived_opponents"`
	ResetHeadshotHitsMapcycle bool `ini:"reset_headshot_hits_mapcycle"`
	ResetKillSpreeMapcycle    bool `ini:"reset_kill_spree_mapcycle"`
	BotsAllowed               bool `ini:"bots_allowed"`

	SpamAnnounceMsg     bool `ini:"spam_announce_msg"`
	SpamFirstBloodMsg   bool `ini:"spam_first_blood_msg"`
	SpamMultiKillMsg    bool `ini:"spam_multi_kill_msg"`
	SpamStreakMsg       bool `ini:"spam_streak_msg"`
	SpamHeadshotMsg     bool `ini:"spam_headshot_msg"`
	SpamAwardsMsg       bool `ini:"spam_awards_msg"`
}

// Rules holds the rotating rules-of-the-day broadcaster config.
type Rules struct {
	ShowRules     bool   `ini:"show_rules"`
	RulesFrequency int   `ini:"rules_frequency"`
	Display       string `ini:"display"`
}

// LowGrav holds the low-gravity mode toggle.
type LowGrav struct {
	SupportLowGravity bool `ini:"support_lowgravity"`
	Gravity           int  `ini:"gravity"`
}

// Mapcycle holds the map rotation source config.
type Mapcycle struct {
	DynamicMapcycle bool   `ini:"dynamic_mapcycle"`
	SwitchCount     int    `ini:"switch_count"`
	BigCycle        string `ini:"big_cycle"`
	SmallCycle      string `ini:"small_cycle"`
}

// Config is the fully loaded, defaulted bot configuration.
type Config struct {
	Server   Server
	Bot      Bot
	Rules    Rules
	LowGrav  LowGrav
	Mapcycle Mapcycle
}

// Load parses an INI file at path into a Config with defaults applied
// for any field the file omits.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %q: %w", path, err)
	}

	if err := file.Section("server").MapTo(&cfg.Server); err != nil {
		return nil, fmt.Errorf("mapping [server]: %w", err)
	}
	if err := file.Section("bot").MapTo(&cfg.Bot); err != nil {
		return nil, fmt.Errorf("mapping [bot]: %w", err)
	}
	if err := file.Section("rules").MapTo(&cfg.Rules); err != nil {
		return nil, fmt.Errorf("mapping [rules]: %w", err)
	}
	if err := file.Section("lowgrav").MapTo(&cfg.LowGrav); err != nil {
		return nil, fmt.Errorf("mapping [lowgrav]: %w", err)
	}
	if err := file.Section("mapcycle").MapTo(&cfg.Mapcycle); err != nil {
		return nil, fmt.Errorf("mapping [mapcycle]: %w", err)
	}

	return cfg, nil
}

// Default returns a Config pre-populated with sane built-in defaults;
// Load overlays whatever the INI file specifies on top of this.
func Default() *Config {
	return &Config{
		Bot: Bot{
			TeamkillAutokick:   true,
			MaxPing:            200,
			TaskFrequency:      60,
			WarnExpiration:     240,
			AdminImmunity:      40,
			KickSpecFullServer: 10,
			SpawnkillWarnTime:  3,
			BanDurationDays:    7,
			ShowCountryOnConnect: true,
			ShowFirstKill:      true,
			ShowMultiKill:      true,
		},
		Rules: Rules{
			RulesFrequency: 90,
			Display:        "chat",
		},
		LowGrav: LowGrav{
			Gravity: 800,
		},
		Mapcycle: Mapcycle{
			SwitchCount: 4,
		},
	}
}

// TaskInterval clamps bot.task_frequency to a 10s floor so a misconfigured
// value can't turn the periodic scheduler into a busy loop.
func (c *Config) TaskInterval() time.Duration {
	freq := c.Bot.TaskFrequency
	if freq < 10 {
		freq = 10
	}
	return time.Duration(freq) * time.Second
}

// RulesInterval returns the rotating-rules broadcast cadence, floored at 5s.
func (c *Config) RulesInterval() time.Duration {
	freq := c.Rules.RulesFrequency
	if freq < 5 {
		freq = 5
	}
	return time.Duration(freq) * time.Second
}
