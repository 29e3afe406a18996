// ABOUTME: Process configuration: optional .env and YAML file, then environment overrides
// ABOUTME: Validate fails fast naming the first missing required variable

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/harperreed/prospecta/models"
)

const appName = "prospecta"

// Required environment variables.
const (
	EnvClientID     = "GOOGLE_CLIENT_ID"
	EnvClientSecret = "GOOGLE_CLIENT_SECRET"
	EnvRedirectURI  = "GOOGLE_REDIRECT_URI"
	EnvProjectID    = "PROSPECTA_PROJECT_ID"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendCharm  = "charm"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Credential backends.
const (
	CredentialsDocument = "document"
	CredentialsFile     = "file"
)

// MissingEnvError reports a required variable that was not set.
type MissingEnvError struct {
	Name string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("required environment variable %s is not set", e.Name)
}

// InvalidEnvError reports an environment variable whose value cannot be parsed.
type InvalidEnvError struct {
	Name  string
	Value string
	Err   error
}

func (e *InvalidEnvError) Error() string {
	return fmt.Sprintf("environment variable %s has invalid value %q: %v", e.Name, e.Value, e.Err)
}

func (e *InvalidEnvError) Unwrap() error { return e.Err }

// Config is the complete process configuration.
type Config struct {
	Google    GoogleConfig   `yaml:"google"`
	ProjectID string         `yaml:"project_id"`
	Server    ServerConfig   `yaml:"server"`
	Store     StoreConfig    `yaml:"store"`
	Log       LogConfig      `yaml:"log"`
	Calendar  CalendarConfig `yaml:"calendar"`
	Charm     CharmConfig    `yaml:"charm"`
}

// GoogleConfig holds the static OAuth client registration.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
	// AuthURL and TokenURL override Google's endpoints when set.
	AuthURL  string `yaml:"auth_url"`
	TokenURL string `yaml:"token_url"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
}

// StoreConfig selects the document store and credential storage.
type StoreConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Credentials string `yaml:"credentials"`
	TokenFile   string `yaml:"token_file"`
}

// CharmConfig holds the charm backend connection settings.
type CharmConfig struct {
	Host           string        `yaml:"host"`
	AutoSync       bool          `yaml:"auto_sync"`
	StaleThreshold time.Duration `yaml:"stale_threshold"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CalendarConfig controls calendar sync. CalendarID, TimeZone, the month
// offsets and AutoSync seed the calendar settings until they are saved.
type CalendarConfig struct {
	CalendarID   string `yaml:"calendar_id"`
	TimeZone     string `yaml:"time_zone"`
	MonthsBefore int    `yaml:"months_before"`
	MonthsAfter  int    `yaml:"months_after"`
	AutoSync     bool   `yaml:"auto_sync"`
	// SyncInterval is how often serve syncs while auto sync is on.
	SyncInterval time.Duration `yaml:"sync_interval"`
	// Endpoint overrides the Calendar API base URL when set.
	Endpoint string `yaml:"endpoint"`
}

// Default returns a config with every optional field filled in.
func Default() *Config {
	dataDir := filepath.Join(xdg.DataHome, appName)
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 30 * time.Second,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
		},
		Store: StoreConfig{
			Backend:     BackendSQLite,
			Path:        filepath.Join(dataDir, appName+".db"),
			Credentials: CredentialsDocument,
			TokenFile:   filepath.Join(dataDir, "google-credentials.json"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Calendar: CalendarConfig{
			CalendarID:   "primary",
			TimeZone:     "UTC",
			MonthsBefore: 1,
			MonthsAfter:  1,
			SyncInterval: 15 * time.Minute,
		},
		Charm: CharmConfig{
			AutoSync: true,
		},
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// Load builds the configuration. A missing .env or YAML file is not an error.
// It does not validate; call Validate before using Google or store settings.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	content = []byte(os.ExpandEnv(string(content)))
	if err := yaml.Unmarshal(content, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Google.ClientID, EnvClientID)
	setString(&c.Google.ClientSecret, EnvClientSecret)
	setString(&c.Google.RedirectURI, EnvRedirectURI)
	setString(&c.ProjectID, EnvProjectID)
	setString(&c.Server.Addr, "PROSPECTA_ADDR")
	setString(&c.Store.Backend, "PROSPECTA_STORE")
	setString(&c.Store.Path, "PROSPECTA_DB_PATH")
	setString(&c.Store.Credentials, "PROSPECTA_CREDENTIALS")
	setString(&c.Log.Level, "PROSPECTA_LOG_LEVEL")
	setString(&c.Log.Format, "PROSPECTA_LOG_FORMAT")
	setString(&c.Calendar.CalendarID, "PROSPECTA_CALENDAR_ID")
	setString(&c.Calendar.TimeZone, "PROSPECTA_TIMEZONE")
	setString(&c.Charm.Host, "CHARM_HOST")

	if err := setInt(&c.Calendar.MonthsBefore, "PROSPECTA_SYNC_MONTHS_BEFORE"); err != nil {
		return err
	}
	if err := setInt(&c.Calendar.MonthsAfter, "PROSPECTA_SYNC_MONTHS_AFTER"); err != nil {
		return err
	}
	if err := setBool(&c.Calendar.AutoSync, "PROSPECTA_AUTO_SYNC"); err != nil {
		return err
	}
	if err := setBool(&c.Charm.AutoSync, "PROSPECTA_CHARM_AUTO_SYNC"); err != nil {
		return err
	}
	if v := os.Getenv("PROSPECTA_SYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &InvalidEnvError{Name: "PROSPECTA_SYNC_INTERVAL", Value: v, Err: err}
		}
		c.Calendar.SyncInterval = d
	}
	return nil
}

func setInt(dst *int, env string) error {
	v := os.Getenv(env)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return &InvalidEnvError{Name: env, Value: v, Err: err}
	}
	*dst = n
	return nil
}

func setBool(dst *bool, env string) error {
	v := os.Getenv(env)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return &InvalidEnvError{Name: env, Value: v, Err: err}
	}
	*dst = b
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// Validate checks required settings in a fixed order.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{EnvClientID, c.Google.ClientID},
		{EnvClientSecret, c.Google.ClientSecret},
		{EnvRedirectURI, c.Google.RedirectURI},
		{EnvProjectID, c.ProjectID},
	}
	for _, r := range required {
		if r.value == "" {
			return &MissingEnvError{Name: r.name}
		}
	}
	return c.ValidateStore()
}

// ValidateStore checks only the settings needed to open the document store.
func (c *Config) ValidateStore() error {
	switch c.Store.Backend {
	case BackendSQLite, BackendBadger:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the %s backend", c.Store.Backend)
		}
	case BackendCharm, BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.Store.Credentials {
	case CredentialsDocument:
	case CredentialsFile:
		if c.Store.TokenFile == "" {
			return errors.New("store.token_file is required for file credentials")
		}
	default:
		return fmt.Errorf("unknown credential backend %q", c.Store.Credentials)
	}

	return c.Calendar.validate()
}

func (c CalendarConfig) validate() error {
	if c.MonthsBefore < 0 || c.MonthsBefore > models.MaxSyncMonths ||
		c.MonthsAfter < 0 || c.MonthsAfter > models.MaxSyncMonths {
		return fmt.Errorf("calendar sync window months must be between 0 and %d", models.MaxSyncMonths)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("unknown calendar time_zone %q", c.TimeZone)
	}
	if c.AutoSync && c.SyncInterval < time.Minute {
		return errors.New("calendar sync_interval must be at least 1m when auto_sync is on")
	}
	return nil
}

// Settings returns the calendar settings this config seeds.
func (c CalendarConfig) Settings() models.CalendarSettings {
	settings := models.DefaultCalendarSettings()
	if c.CalendarID != "" {
		settings.DefaultCalendarID = c.CalendarID
	}
	if c.TimeZone != "" {
		settings.TimeZone = c.TimeZone
	}
	settings.SyncMonthsBefore = c.MonthsBefore
	settings.SyncMonthsAfter = c.MonthsAfter
	settings.AutoSync = c.AutoSync
	return settings
}
