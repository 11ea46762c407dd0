package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const DefaultPath = "config/agent.yaml"

type AppConfig struct {
	ServerURL      string
	AuthHeader     string
	AuthToken      string
	DeviceID       string
	Version        string
	Interval       time.Duration
	RequestTimeout time.Duration
	LedgerPath     string
	LogPath        string
}

var cfg AppConfig

// BindFlags registers the agent's command-line flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", DefaultPath, "path to the agent YAML configuration file")
	fs.String("server", "", "server base URL")
	fs.String("token", "", "credential sent with every request")
	fs.String("device-id", "", "device id reported to the server (default: hostname)")
	fs.Duration("interval", 0, "heartbeat interval")
	fs.Bool("once", false, "send one heartbeat, drain the queue and exit")
}

var flagKeys = map[string]string{
	"server":    "agent.server_url",
	"token":     "agent.auth_token",
	"device-id": "agent.device_id",
	"interval":  "agent.interval",
}

// Init loads defaults, the optional YAML file, FLEETPULSE_AGENT_* variables
// and flags, in increasing precedence. The result is also kept for Get.
func Init(path string, flags *pflag.FlagSet) (AppConfig, error) {
	host, _ := os.Hostname()

	v := viper.New()
	v.SetDefault("agent.server_url", "http://127.0.0.1:8080")
	v.SetDefault("agent.auth_header", "X-Auth-Token")
	v.SetDefault("agent.auth_token", "dev-token-123")
	v.SetDefault("agent.device_id", host)
	v.SetDefault("agent.version", "0.1.0")
	v.SetDefault("agent.interval", 10*time.Second)
	v.SetDefault("agent.request_timeout", 10*time.Second)
	v.SetDefault("agent.ledger_path", filepath.Join(os.TempDir(), "fleetpulse", "agent.db"))
	v.SetDefault("agent.log_path", "")
	v.SetEnvPrefix("FLEETPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return AppConfig{}, err
				}
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notExist *fs.PathError
			if path != DefaultPath || !errors.As(err, &notExist) {
				return AppConfig{}, fmt.Errorf("read agent config: %w", err)
			}
		}
	}

	c := AppConfig{
		ServerURL:      strings.TrimRight(v.GetString("agent.server_url"), "/"),
		AuthHeader:     v.GetString("agent.auth_header"),
		AuthToken:      v.GetString("agent.auth_token"),
		DeviceID:       strings.TrimSpace(v.GetString("agent.device_id")),
		Version:        v.GetString("agent.version"),
		Interval:       v.GetDuration("agent.interval"),
		RequestTimeout: v.GetDuration("agent.request_timeout"),
		LedgerPath:     v.GetString("agent.ledger_path"),
		LogPath:        v.GetString("agent.log_path"),
	}
	if err := c.validate(); err != nil {
		return AppConfig{}, err
	}
	cfg = c
	return c, nil
}

func (c AppConfig) validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("agent.server_url %q is not an http(s) URL", c.ServerURL)
	}
	if c.DeviceID == "" {
		return errors.New("agent.device_id is empty and the hostname is unknown")
	}
	if c.AuthToken == "" {
		return errors.New("agent.auth_token must be set")
	}
	if c.Interval <= 0 {
		return errors.New("agent.interval must be positive")
	}
	return nil
}

func Get() AppConfig { return cfg }
