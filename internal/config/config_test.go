package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const mappingsYAML = `projects:
  HRIS: 63
  CBL: 66
activities:
  Development: 3
  Meeting: 14
`

// isolate runs the test in an empty directory with a mappings file and no
// inherited settings.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, env := range keys {
		t.Setenv(env, "")
	}
	if err := os.WriteFile(filepath.Join(dir, "mappings.yaml"), []byte(mappingsYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	t.Setenv("OPENPROJECT_BASE_URL", "https://pm.example.com/")
	t.Setenv("OPENPROJECT_API_TOKEN", "secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenProject.BaseURL != "https://pm.example.com" {
		t.Fatalf("base url = %q", cfg.OpenProject.BaseURL)
	}
	if cfg.OpenProject.TypeID != 1 || cfg.OpenProject.PageSize != 100 {
		t.Fatalf("openproject defaults = %+v", cfg.OpenProject)
	}
	if cfg.Worklog.Timezone != "Asia/Dhaka" || cfg.Worklog.DuplicateCheck != FailOpen || cfg.Worklog.RetryAttempts != 1 {
		t.Fatalf("worklog defaults = %+v", cfg.Worklog)
	}
	if cfg.Worklog.JournalPath == "" {
		t.Fatal("journal path should default")
	}
	if err := cfg.RequireRemote(); err != nil {
		t.Fatalf("RequireRemote: %v", err)
	}
	if id, ok := cfg.Catalog().ProjectID("HRIS"); !ok || id != 63 {
		t.Fatalf("HRIS = %d %v", id, ok)
	}
	if _, ok := cfg.Catalog().ActivityID("Support"); ok {
		t.Fatal("activities from the file replace the defaults")
	}
}

func TestLoad_EnvOverridesSettingsFile(t *testing.T) {
	dir := isolate(t)
	settings := `openproject:
  base_url: https://file.example.com
  api_token: from-file
  responsible_id: 83
  page_size: 50
worklog:
  timezone: UTC
  duplicate_check: fail-closed
  retry_attempts: 3
  retry_backoff: 2s
`
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte(settings), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENPROJECT_API_TOKEN", "from-env")
	t.Setenv("OPENPROJECT_ASSIGNEE_ID", "84")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenProject.APIToken != "from-env" || cfg.OpenProject.BaseURL != "https://file.example.com" {
		t.Fatalf("precedence wrong: %+v", cfg.OpenProject)
	}
	if cfg.OpenProject.ResponsibleID != 83 || cfg.OpenProject.AssigneeID != 84 || cfg.OpenProject.PageSize != 50 {
		t.Fatalf("ids = %+v", cfg.OpenProject)
	}
	if cfg.Worklog.DuplicateCheck != FailClosed || cfg.Worklog.RetryAttempts != 3 || cfg.Worklog.RetryBackoff != 2*time.Second {
		t.Fatalf("worklog = %+v", cfg.Worklog)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("location = %v %v", loc, err)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("OPENPROJECT_API_TOKEN")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENPROJECT_API_TOKEN=dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenProject.APIToken != "dotenv" {
		t.Fatalf("token = %q", cfg.OpenProject.APIToken)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]struct{ env, value, want string }{
		"bad id":       {"OPENPROJECT_RESPONSIBLE_ID", "abc", "OPENPROJECT_RESPONSIBLE_ID must be an integer"},
		"bad mode":     {"WORKLOG_DUPLICATE_CHECK", "sometimes", "WORKLOG_DUPLICATE_CHECK must be"},
		"bad zone":     {"WORKLOG_TZ", "Mars/Olympus", "WORKLOG_TZ"},
		"zero page":    {"OPENPROJECT_PAGE_SIZE", "0", "must be positive"},
		"no mappings":  {"WORKLOG_MAPPINGS", "missing.yaml", "read mappings"},
		"bad attempts": {"WORKLOG_RETRY_ATTEMPTS", "0", "must be at least 1"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			isolate(t)
			t.Setenv(c.env, c.value)
			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Fatalf("expected error containing %q, got %v", c.want, err)
			}
		})
	}
}

func TestRequireRemote(t *testing.T) {
	var cfg Config
	err := cfg.RequireRemote()
	if err == nil || err.Error() != "OPENPROJECT_BASE_URL and OPENPROJECT_API_TOKEN is required" {
		t.Fatalf("RequireRemote = %v", err)
	}
}

func TestLoadMappings_DefaultActivities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.yaml")
	if err := os.WriteFile(path, []byte("projects:\n  HRIS: 63\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadMappings(path)
	if err != nil {
		t.Fatalf("LoadMappings: %v", err)
	}
	if m.Activities["Change Request"] != 15 {
		t.Fatalf("activities = %v", m.Activities)
	}

	if err := os.WriteFile(path, []byte("activities:\n  Development: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMappings(path); err == nil {
		t.Fatal("expected error without projects")
	}
}
