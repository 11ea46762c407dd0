package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix         = "FLEETPULSE"
	DefaultConfigPath = "config/config.yaml"
)

type Server struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (s Server) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

type DB struct {
	Driver string
	Path   string
	Host   string
	Port   int
	User   string
	Pass   string
	Name   string
}

type Auth struct {
	Header    string
	Tokens    []string
	OrgTokens map[string]string
}

type JWT struct {
	Secret string
	Issuer string
	ExpMin int
}

type Admin struct {
	Username string
	Password string
}

type Offline struct {
	Threshold     time.Duration
	SweepInterval time.Duration
}

type Store struct {
	HeartbeatHistory int
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

type Log struct {
	Level  string
	Format string
}

type Config struct {
	Server  Server
	DB      DB
	Auth    Auth
	JWT     JWT
	Admin   Admin
	Offline Offline
	Store   Store
	Redis   Redis
	Log     Log
}

// flag name -> viper key
var flagKeys = map[string]string{
	"host":      "server.host",
	"port":      "server.port",
	"db-driver": "db.driver",
	"db-path":   "db.path",
	"log-level": "log.level",
}

// BindFlags registers the server's command-line flags on fs. Load reads them
// back with precedence over the file and the environment.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", DefaultConfigPath, "path to the YAML configuration file")
	fs.String("host", "", "listen host")
	fs.Int("port", 0, "listen port")
	fs.String("db-driver", "", "store driver: sqlite or mysql")
	fs.String("db-path", "", "sqlite database file")
	fs.String("log-level", "", "log level: debug, info, warn, error")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "data/fleetpulse.db")
	v.SetDefault("db.host", "127.0.0.1")
	v.SetDefault("db.port", 3306)
	v.SetDefault("db.user", "root")
	v.SetDefault("db.pass", "")
	v.SetDefault("db.name", "fleetpulse")
	v.SetDefault("auth.header", "X-Auth-Token")
	v.SetDefault("auth.tokens", []string{"dev-token-123"})
	v.SetDefault("auth.org_tokens", map[string]string{})
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "fleetpulse")
	v.SetDefault("jwt.exp_min", 60)
	v.SetDefault("admin.username", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("offline.threshold", 30*time.Second)
	v.SetDefault("offline.sweep_interval", 10*time.Second)
	v.SetDefault("store.heartbeat_history", 100)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "fleetpulse:device-status")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load resolves configuration from defaults, an optional .env file, the YAML
// file at path, FLEETPULSE_* environment variables and flags (lowest to
// highest). A missing file is only an error when it was asked for explicitly.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != DefaultConfigPath
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Changed {
			explicit = true
		}
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notExist *fs.PathError
			if explicit || !errors.As(err, &notExist) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Server: Server{
			Host:         v.GetString("server.host"),
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		DB: DB{
			Driver: strings.ToLower(v.GetString("db.driver")),
			Path:   v.GetString("db.path"),
			Host:   v.GetString("db.host"),
			Port:   v.GetInt("db.port"),
			User:   v.GetString("db.user"),
			Pass:   v.GetString("db.pass"),
			Name:   v.GetString("db.name"),
		},
		Auth: Auth{
			Header:    v.GetString("auth.header"),
			Tokens:    stringList(v.Get("auth.tokens")),
			OrgTokens: v.GetStringMapString("auth.org_tokens"),
		},
		JWT: JWT{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
			ExpMin: v.GetInt("jwt.exp_min"),
		},
		Admin: Admin{
			Username: v.GetString("admin.username"),
			Password: v.GetString("admin.password"),
		},
		Offline: Offline{
			Threshold:     v.GetDuration("offline.threshold"),
			SweepInterval: v.GetDuration("offline.sweep_interval"),
		},
		Store: Store{HeartbeatHistory: v.GetInt("store.heartbeat_history")},
		Redis: Redis{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Channel:  v.GetString("redis.channel"),
		},
		Log: Log{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}
	if cfg.JWT.ExpMin <= 0 {
		cfg.JWT.ExpMin = 60
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// stringList accepts a YAML list or a comma separated string (the form an
// environment variable arrives in).
func stringList(raw any) []string {
	var parts []string
	switch t := raw.(type) {
	case string:
		parts = strings.Split(t, ",")
	case []string:
		parts = t
	case []any:
		for _, e := range t {
			parts = append(parts, fmt.Sprint(e))
		}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch c.DB.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("config: unknown db.driver %q", c.DB.Driver)
	}
	if c.Auth.Header == "" {
		return errors.New("config: auth.header must not be empty")
	}
	if len(c.Auth.Tokens) == 0 && len(c.Auth.OrgTokens) == 0 && c.JWT.Secret == "" {
		return errors.New("config: no credentials configured (auth.tokens, auth.org_tokens or jwt.secret)")
	}
	if c.Offline.Threshold <= 0 {
		return errors.New("config: offline.threshold must be positive")
	}
	if c.Offline.SweepInterval < 0 {
		return errors.New("config: offline.sweep_interval must not be negative")
	}
	if c.Store.HeartbeatHistory < 0 {
		return errors.New("config: store.heartbeat_history must not be negative")
	}
	return nil
}
