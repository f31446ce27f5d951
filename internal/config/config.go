package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	DHIS2  DHIS2Config  `yaml:"dhis2" mapstructure:"dhis2"`
	Audit  AuditConfig  `yaml:"audit" mapstructure:"audit"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DHIS2Config holds the connection settings for the tracker instance.
type DHIS2Config struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	Username       string  `yaml:"username" mapstructure:"username"`
	Password       string  `yaml:"password" mapstructure:"password"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec     float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	EventPageSize  int     `yaml:"event_page_size" mapstructure:"event_page_size"`
	EntityPageSize int     `yaml:"entity_page_size" mapstructure:"entity_page_size"`
}

// Timeout returns the request timeout as a duration.
func (c DHIS2Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// AuditConfig pins the tracker metadata the audit depends on: the
// program under review, the attribute that carries a hand-entered
// coordinate, and the attributes that hold a person's name.
type AuditConfig struct {
	Program             string   `yaml:"program" mapstructure:"program"`
	OrgUnit             string   `yaml:"org_unit" mapstructure:"org_unit"`
	CoordinateAttribute string   `yaml:"coordinate_attribute" mapstructure:"coordinate_attribute"`
	NameAttributes      []string `yaml:"name_attributes" mapstructure:"name_attributes"`
	ZonesFile           string   `yaml:"zones_file" mapstructure:"zones_file"`
}

// OutputConfig configures where exports land.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the results API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Instance credentials are usually provided the DHIS2 way rather
	// than through the app prefix.
	v.BindEnv("dhis2.username", "GEOAUDIT_DHIS2_USERNAME", "DHIS2_USERNAME")
	v.BindEnv("dhis2.password", "GEOAUDIT_DHIS2_PASSWORD", "DHIS2_PASSWORD")

	// Defaults
	v.SetDefault("dhis2.base_url", "http://pfizer.dhis.et/api")
	v.SetDefault("dhis2.timeout_secs", 60)
	v.SetDefault("dhis2.max_retries", 3)
	v.SetDefault("dhis2.rate_per_sec", 5)
	v.SetDefault("dhis2.event_page_size", 200)
	v.SetDefault("dhis2.entity_page_size", 1000)
	v.SetDefault("audit.program", "PK5z4GmhKjI")
	v.SetDefault("audit.coordinate_attribute", "rnAb1BzIfVV")
	v.SetDefault("audit.name_attributes", []string{"jXFBnlt8KyM", "hgXcoeoc1UE"})
	v.SetDefault("output.dir", "out")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "geoaudit.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration required for the given mode is
// present. Modes: "audit" needs instance access, "serve" needs a store
// and a port.
func (c *Config) Validate(mode string) error {
	var missing []string

	switch mode {
	case "audit":
		if c.DHIS2.BaseURL == "" {
			missing = append(missing, "dhis2.base_url is required")
		}
		if c.DHIS2.Username == "" {
			missing = append(missing, "dhis2.username is required")
		}
		if c.DHIS2.Password == "" {
			missing = append(missing, "dhis2.password is required")
		}
		if c.Audit.Program == "" {
			missing = append(missing, "audit.program is required")
		}
	case "serve":
		if c.Store.Driver == "" {
			missing = append(missing, "store.driver is required")
		}
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.DHIS2.EventPageSize < 0 || c.DHIS2.EntityPageSize < 0 {
		missing = append(missing, "page sizes must be >= 0")
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
