package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name, e.g. STUDYHABIT_PORT.
const Prefix = "STUDYHABIT"

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	DBPath    string `envconfig:"DB_PATH" default:"studyhabit.db"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"` // text|json
	Timezone  string `envconfig:"TIMEZONE" default:"Local"`  // IANA name used for the daily reminder

	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDSubscriber string `envconfig:"VAPID_SUBSCRIBER" default:"mailto:noreply@studyhabit.app"`

	AgentWaitInterval  time.Duration `envconfig:"AGENT_WAIT_INTERVAL" default:"500ms"`
	AgentWaitAttempts  int           `envconfig:"AGENT_WAIT_ATTEMPTS" default:"10"`
	AgentProbeInterval time.Duration `envconfig:"AGENT_PROBE_INTERVAL" default:"5s"`
	PermissionTimeout  time.Duration `envconfig:"PERMISSION_TIMEOUT" default:"60s"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
}

// Load reads environment variables into Config and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return cfg, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot express with tags.
func (c Config) Validate() error {
	if (c.VAPIDPublicKey == "") != (c.VAPIDPrivateKey == "") {
		return fmt.Errorf("both %s_VAPID_PUBLIC_KEY and %s_VAPID_PRIVATE_KEY must be set", Prefix, Prefix)
	}
	if c.AgentWaitAttempts < 1 {
		return fmt.Errorf("%s_AGENT_WAIT_ATTEMPTS must be at least 1", Prefix)
	}
	if c.AgentWaitInterval <= 0 || c.AgentProbeInterval <= 0 || c.PermissionTimeout <= 0 {
		return fmt.Errorf("durations must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// PushEnabled reports whether VAPID keys are configured.
func (c Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// Location resolves Timezone. "Local" and "" map to time.Local.
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return loc, nil
}
