package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
	Gate      GateConfig      `yaml:"gate" envconfig:"GATE"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig describes the ordered connection strategies for the fact store.
// Strategies without a configured DSN/path are skipped at build time; there
// are no embedded fallback credentials.
type StoreConfig struct {
	Strategies     []string      `yaml:"strategies" envconfig:"STRATEGIES" default:"mysql,postgres,snapshot"`
	MySQLDSN       string        `yaml:"mysql_dsn" envconfig:"MYSQL_DSN"`
	PostgresDSN    string        `yaml:"postgres_dsn" envconfig:"POSTGRES_DSN"`
	SnapshotPath   string        `yaml:"snapshot_path" envconfig:"SNAPSHOT_PATH"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"CONNECT_TIMEOUT" default:"5s"`
	QueryTimeout   time.Duration `yaml:"query_timeout" envconfig:"QUERY_TIMEOUT" default:"30s"`
}

// GateConfig contains the dashboard access gate configuration. PasswordHash
// is a bcrypt hash and takes precedence over the plain Password. With neither
// set the gate stays closed and gated routes return a configuration error.
type GateConfig struct {
	Password     string        `yaml:"password" envconfig:"PASSWORD"`
	PasswordHash string        `yaml:"password_hash" envconfig:"PASSWORD_HASH"`
	SessionTTL   time.Duration `yaml:"session_ttl" envconfig:"SESSION_TTL" default:"12h"`
	LoginRPS     float64       `yaml:"login_rps" envconfig:"LOGIN_RPS" default:"1"`
	LoginBurst   int           `yaml:"login_burst" envconfig:"LOGIN_BURST" default:"5"`
}

// CacheConfig controls the snapshot cache. Disabling it only costs a reload
// per request; observable results are identical either way.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	TTL     time.Duration `yaml:"ttl" envconfig:"TTL" default:"5m"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/washpulse.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ExportsDir string `yaml:"exports_dir" envconfig:"EXPORTS_DIR" default:"data/exports"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// WebSocketConfig contains refresh hub configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration from environment variables and the optional
// config file. Environment values take precedence over file values.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = merge(*fileCfg, cfg)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with all defaults applied and no store
// credentials. Intended for tests.
func Default() *Config {
	var cfg Config
	if err := envconfig.Process("WASHPULSE_TEST_UNSET", &cfg); err != nil {
		// Defaults come from struct tags; processing an unused prefix
		// cannot fail on them.
		panic(err)
	}
	return &cfg
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// merge overlays env config on top of file config: any env value left at its
// zero value falls back to the file value.
func merge(fileCfg, envCfg Config) Config {
	if envCfg.Server.Port == 0 {
		envCfg.Server.Port = fileCfg.Server.Port
	}
	if envCfg.Store.MySQLDSN == "" {
		envCfg.Store.MySQLDSN = fileCfg.Store.MySQLDSN
	}
	if envCfg.Store.PostgresDSN == "" {
		envCfg.Store.PostgresDSN = fileCfg.Store.PostgresDSN
	}
	if envCfg.Store.SnapshotPath == "" {
		envCfg.Store.SnapshotPath = fileCfg.Store.SnapshotPath
	}
	if envCfg.Gate.Password == "" {
		envCfg.Gate.Password = fileCfg.Gate.Password
	}
	if envCfg.Gate.PasswordHash == "" {
		envCfg.Gate.PasswordHash = fileCfg.Gate.PasswordHash
	}
	if envCfg.Logging.Level == "" {
		envCfg.Logging.Level = fileCfg.Logging.Level
	}
	return envCfg
}

// Validate checks the merged configuration for values the rest of the
// system cannot work around.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("unknown log output %q", c.Logging.Output)
	}

	seen := make(map[string]bool, len(c.Store.Strategies))
	for _, name := range c.Store.Strategies {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		switch name {
		case StrategyMySQL, StrategyPostgres, StrategySnapshot:
		default:
			return fmt.Errorf("unknown store strategy %q", name)
		}
		if seen[name] {
			return fmt.Errorf("store strategy %q listed twice", name)
		}
		seen[name] = true
	}

	if c.Gate.SessionTTL <= 0 {
		return fmt.Errorf("gate session ttl must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}
	return nil
}

// GateConfigured reports whether the access gate has a credential to check
// against. An unconfigured gate keeps all gated routes closed.
func (c *Config) GateConfigured() bool {
	return c.Gate.Password != "" || c.Gate.PasswordHash != ""
}

// StrategyNames returns the normalized ordered strategy list.
func (c *Config) StrategyNames() []string {
	out := make([]string, 0, len(c.Store.Strategies))
	for _, name := range c.Store.Strategies {
		name = strings.TrimSpace(strings.ToLower(name))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

func (c *Config) resolvePaths() error {
	base, err := executableDir()
	if err != nil {
		return err
	}

	c.Paths.DataDir = absolutize(base, c.Paths.DataDir)
	c.Paths.ExportsDir = absolutize(base, c.Paths.ExportsDir)
	c.Paths.LogsDir = absolutize(base, c.Paths.LogsDir)
	if !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = filepath.Join(base, c.Logging.FilePath)
	}
	if c.Store.SnapshotPath != "" && !filepath.IsAbs(c.Store.SnapshotPath) {
		c.Store.SnapshotPath = filepath.Join(base, c.Store.SnapshotPath)
	}
	return nil
}

func absolutize(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// EnsureDirectories creates the configured directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ExportsDir, c.Paths.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func configFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}
	base, err := executableDir()
	if err != nil {
		return ConfigFileName
	}
	return filepath.Join(base, ConfigFileName)
}
