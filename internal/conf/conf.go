package conf

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/data"
)

// EnvPrefix prefixes every environment variable read through viper
const EnvPrefix = "SUMMONER"

// Config represents application configuration
type Config struct {
	// Discord configuration
	Discord DiscordConfig

	// Watched user and summon settings
	Watch  WatchConfig
	Summon SummonConfig
	Quiet  QuietConfig

	// Command surface
	Command CommandConfig

	// Files the bot persists to
	Data DataConfig

	// Admin API (0 disables)
	API APIConfig

	// Message templates (loaded from YAML)
	Templates *TemplatesConfig
}

// DiscordConfig contains Discord configuration
type DiscordConfig struct {
	Token string
}

// WatchConfig identifies the watched user
type WatchConfig struct {
	UserID string
}

// SummonConfig contains automatic summon settings
type SummonConfig struct {
	Channel       string // destination channel name, matched case-insensitively
	IntervalHours int
}

// QuietConfig contains the quiet-hours window
type QuietConfig struct {
	StartHour int
	EndHour   int
}

// CommandConfig contains command parsing settings
type CommandConfig struct {
	Prefix string
}

// DataConfig contains file locations
type DataConfig struct {
	Dir        string
	PhrasesCSV string
	HaikusCSV  string
	PoolFile   string
	UsedFile   string
	StateFile  string
	HistoryDB  string
}

// APIConfig contains admin API settings
type APIConfig struct {
	Port int
}

// envAliases are the bare environment names also accepted for a key
var envAliases = map[string]string{
	"discord.token":         "BOT_TOKEN",
	"watch.user_id":         "WATCHED_USER_ID",
	"summon.channel":        "DESTINATION_CHANNEL",
	"summon.interval_hours": "SUMMON_INTERVAL_HOURS",
	"quiet.start_hour":      "QUIET_START_HOUR",
	"quiet.end_hour":        "QUIET_END_HOUR",
	"command.prefix":        "COMMAND_PREFIX",
	"data.dir":              "DATA_DIR",
	"data.phrases_csv":      "PHRASES_CSV",
	"data.haikus_csv":       "HAIKUS_CSV",
	"data.history_db":       "HISTORY_DB_PATH",
	"api.port":              "API_PORT",
	"templates.path":        "TEMPLATES_PATH",
}

// SetDefaults registers defaults and environment bindings on v
func SetDefaults(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("summon.channel", "general")
	v.SetDefault("summon.interval_hours", 3)
	v.SetDefault("quiet.start_hour", 0)
	v.SetDefault("quiet.end_hour", 7)
	v.SetDefault("command.prefix", "/")
	v.SetDefault("data.dir", ".")
	v.SetDefault("api.port", 9877)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	for key, alias := range envAliases {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
		_ = v.BindEnv(key, prefixed, alias)
	}
}

// LoadFromViper builds the configuration from v
// File locations left empty are placed under data.dir.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	dir := v.GetString("data.dir")
	if dir == "" {
		dir = "."
	}
	inDir := func(key, name string) string {
		if p := strings.TrimSpace(v.GetString(key)); p != "" {
			return p
		}
		return filepath.Join(dir, name)
	}

	templates, err := LoadTemplatesConfig(v.GetString("templates.path"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Discord: DiscordConfig{
			Token: strings.TrimSpace(v.GetString("discord.token")),
		},
		Watch: WatchConfig{
			UserID: strings.TrimSpace(v.GetString("watch.user_id")),
		},
		Summon: SummonConfig{
			Channel:       v.GetString("summon.channel"),
			IntervalHours: v.GetInt("summon.interval_hours"),
		},
		Quiet: QuietConfig{
			StartHour: v.GetInt("quiet.start_hour"),
			EndHour:   v.GetInt("quiet.end_hour"),
		},
		Command: CommandConfig{
			Prefix: v.GetString("command.prefix"),
		},
		Data: DataConfig{
			Dir:        dir,
			PhrasesCSV: inDir("data.phrases_csv", "summoning_phrases.csv"),
			HaikusCSV:  inDir("data.haikus_csv", "summoning_haikus.csv"),
			PoolFile:   inDir("data.pool_file", "summoning_messages.json"),
			UsedFile:   inDir("data.used_file", "used_messages.json"),
			StateFile:  inDir("data.state_file", "bot_data.json"),
			HistoryDB:  inDir("data.history_db", "summon_history.db"),
		},
		API: APIConfig{
			Port: v.GetInt("api.port"),
		},
		Templates: templates,
	}, nil
}

// QuietHours returns the quiet-hours window
func (c *Config) QuietHours() domain.QuietHours {
	return domain.QuietHours{Start: c.Quiet.StartHour, End: c.Quiet.EndHour}
}

// SummonInterval returns the period between automatic summons
func (c *Config) SummonInterval() time.Duration {
	return time.Duration(c.Summon.IntervalHours) * time.Hour
}

// DataPaths converts to repository file locations
func (c *Config) DataPaths() data.Paths {
	return data.Paths{
		Messages: data.MessagePaths{
			PoolFile:   c.Data.PoolFile,
			UsedFile:   c.Data.UsedFile,
			PhrasesCSV: c.Data.PhrasesCSV,
			HaikusCSV:  c.Data.HaikusCSV,
		},
		StateFile: c.Data.StateFile,
		HistoryDB: c.Data.HistoryDB,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return &ConfigError{Field: "BOT_TOKEN", Message: "required"}
	}
	if c.Watch.UserID == "" {
		return &ConfigError{Field: "WATCHED_USER_ID", Message: "required"}
	}
	if c.Summon.IntervalHours <= 0 {
		return &ConfigError{Field: "SUMMON_INTERVAL_HOURS", Message: "must be positive"}
	}
	if !validHour(c.Quiet.StartHour) {
		return &ConfigError{Field: "QUIET_START_HOUR", Message: "must be within 0-23"}
	}
	if !validHour(c.Quiet.EndHour) {
		return &ConfigError{Field: "QUIET_END_HOUR", Message: "must be within 0-23"}
	}
	if strings.TrimSpace(c.Command.Prefix) == "" {
		return &ConfigError{Field: "COMMAND_PREFIX", Message: "required"}
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return &ConfigError{Field: "API_PORT", Message: "must be within 0-65535"}
	}
	return nil
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
