package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"worklog-sync/internal/domain"
)

// Duplicate check modes.
const (
	FailOpen   = "fail-open"
	FailClosed = "fail-closed"
)

// DefaultSettingsFile is read when present in the working directory.
const DefaultSettingsFile = "worklog.yaml"

// Config holds environment-driven configuration.
type Config struct {
	OpenProject struct {
		BaseURL       string
		APIToken      string
		ResponsibleID int64
		AssigneeID    int64
		TypeID        int64
		PageSize      int
	}
	Worklog struct {
		Timezone       string // IANA name, default Asia/Dhaka
		MappingsPath   string
		DuplicateCheck string // fail-open or fail-closed
		RetryAttempts  int
		RetryBackoff   time.Duration
		JournalPath    string
	}
	MySQL struct {
		DSN string // e.g., user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
	}
	Mappings Mappings
}

// Mappings are the name-to-id tables of the mappings file. Keys are the
// exact names used in input documents.
type Mappings struct {
	Projects   map[string]int64 `yaml:"projects"`
	Activities map[string]int64 `yaml:"activities"`
}

// keys maps settings keys to their environment variables.
var keys = map[string]string{
	"openproject.base_url":       "OPENPROJECT_BASE_URL",
	"openproject.api_token":      "OPENPROJECT_API_TOKEN",
	"openproject.responsible_id": "OPENPROJECT_RESPONSIBLE_ID",
	"openproject.assignee_id":    "OPENPROJECT_ASSIGNEE_ID",
	"openproject.type_id":        "OPENPROJECT_TYPE_ID",
	"openproject.page_size":      "OPENPROJECT_PAGE_SIZE",
	"worklog.timezone":           "WORKLOG_TZ",
	"worklog.mappings":           "WORKLOG_MAPPINGS",
	"worklog.duplicate_check":    "WORKLOG_DUPLICATE_CHECK",
	"worklog.retry_attempts":     "WORKLOG_RETRY_ATTEMPTS",
	"worklog.retry_backoff":      "WORKLOG_RETRY_BACKOFF",
	"worklog.journal_path":       "WORKLOG_JOURNAL_PATH",
	"mysql.dsn":                  "MYSQL_DSN",
}

// Load reads configuration from the environment (after loading .env when
// present) and an optional YAML settings file; environment variables win.
// An empty settingsPath means worklog.yaml if it exists. The mappings file
// is then read from the configured path.
func Load(settingsPath string) (Config, error) {
	var cfg Config
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("read .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("openproject.type_id", 1)
	v.SetDefault("openproject.page_size", 100)
	v.SetDefault("worklog.timezone", "Asia/Dhaka")
	v.SetDefault("worklog.mappings", "mappings.yaml")
	v.SetDefault("worklog.duplicate_check", FailOpen)
	v.SetDefault("worklog.retry_attempts", 1)
	v.SetDefault("worklog.retry_backoff", "0s")
	v.SetDefault("worklog.journal_path", defaultJournalPath())
	for key, env := range keys {
		if err := v.BindEnv(key, env); err != nil {
			return cfg, err
		}
	}

	if settingsPath == "" {
		if _, err := os.Stat(DefaultSettingsFile); err == nil {
			settingsPath = DefaultSettingsFile
		}
	}
	if settingsPath != "" {
		v.SetConfigFile(settingsPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read settings %s: %w", settingsPath, err)
		}
	}

	cfg.OpenProject.BaseURL = strings.TrimRight(v.GetString("openproject.base_url"), "/")
	cfg.OpenProject.APIToken = v.GetString("openproject.api_token")
	var err error
	if cfg.OpenProject.ResponsibleID, err = intSetting(v, "openproject.responsible_id"); err != nil {
		return cfg, err
	}
	if cfg.OpenProject.AssigneeID, err = intSetting(v, "openproject.assignee_id"); err != nil {
		return cfg, err
	}
	if cfg.OpenProject.TypeID, err = intSetting(v, "openproject.type_id"); err != nil {
		return cfg, err
	}
	pageSize, err := intSetting(v, "openproject.page_size")
	if err != nil {
		return cfg, err
	}
	if pageSize <= 0 {
		return cfg, errors.New(keys["openproject.page_size"] + " must be positive")
	}
	cfg.OpenProject.PageSize = int(pageSize)

	cfg.Worklog.Timezone = v.GetString("worklog.timezone")
	cfg.Worklog.MappingsPath = v.GetString("worklog.mappings")
	cfg.Worklog.JournalPath = v.GetString("worklog.journal_path")
	cfg.Worklog.DuplicateCheck = strings.ToLower(v.GetString("worklog.duplicate_check"))
	if cfg.Worklog.DuplicateCheck != FailOpen && cfg.Worklog.DuplicateCheck != FailClosed {
		return cfg, fmt.Errorf("%s must be %s or %s", keys["worklog.duplicate_check"], FailOpen, FailClosed)
	}
	attempts, err := intSetting(v, "worklog.retry_attempts")
	if err != nil {
		return cfg, err
	}
	if attempts < 1 {
		return cfg, errors.New(keys["worklog.retry_attempts"] + " must be at least 1")
	}
	cfg.Worklog.RetryAttempts = int(attempts)
	if cfg.Worklog.RetryBackoff, err = time.ParseDuration(v.GetString("worklog.retry_backoff")); err != nil {
		return cfg, fmt.Errorf("%s must be a duration: %w", keys["worklog.retry_backoff"], err)
	}
	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}

	cfg.MySQL.DSN = v.GetString("mysql.dsn")

	m, err := LoadMappings(cfg.Worklog.MappingsPath)
	if err != nil {
		return cfg, err
	}
	cfg.Mappings = m
	return cfg, nil
}

// intSetting accepts the integer forms viper may hold; empty means 0.
func intSetting(v *viper.Viper, key string) (int64, error) {
	raw := v.Get(key)
	switch x := raw.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		if x == float64(int64(x)) {
			return int64(x), nil
		}
	case string:
		if strings.TrimSpace(x) == "" {
			return 0, nil
		}
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%s must be an integer, got %v", keys[key], raw)
}

func defaultJournalPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".worklog-sync", "journal.db")
	}
	return filepath.Join(dir, "worklog-sync", "journal.db")
}

// LoadMappings decodes the YAML mappings file. Activities default to the
// stock OpenProject ids when the file lists none.
func LoadMappings(path string) (Mappings, error) {
	var m Mappings
	b, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("read mappings: %w", err)
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("parse mappings %s: %w", path, err)
	}
	if len(m.Projects) == 0 {
		return m, fmt.Errorf("mappings %s: no projects configured", path)
	}
	if len(m.Activities) == 0 {
		m.Activities = domain.DefaultActivities()
	}
	return m, nil
}

// RequireRemote reports missing credentials for commands that call the API.
func (c Config) RequireRemote() error {
	var missing []string
	if c.OpenProject.BaseURL == "" {
		missing = append(missing, keys["openproject.base_url"])
	}
	if c.OpenProject.APIToken == "" {
		missing = append(missing, keys["openproject.api_token"])
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is required", strings.Join(missing, " and "))
	}
	return nil
}

// Catalog returns the name tables as a domain catalog.
func (c Config) Catalog() domain.Catalog {
	return domain.NewCatalog(c.Mappings.Projects, c.Mappings.Activities)
}

// Location loads the configured time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Worklog.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", keys["worklog.timezone"], err)
	}
	return loc, nil
}
