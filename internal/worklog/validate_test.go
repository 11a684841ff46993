package worklog

import (
	"encoding/json"
	"strings"
	"testing"

	"worklog-sync/internal/domain"
)

func testCatalog() domain.Catalog {
	return domain.NewCatalog(map[string]int64{"HRIS": 63, "CBL": 66}, domain.DefaultActivities())
}

func validEntry() map[string]any {
	return map[string]any{
		"project":        "HRIS",
		"subject":        "Fix login bug",
		"duration_hours": json.Number("1.5"),
		"activity":       "Development",
		"is_scrum":       false,
	}
}

func TestValidate_ValidEntry(t *testing.T) {
	v := Validator{Catalog: testCatalog()}
	if errs := v.Validate(validEntry(), 1); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidate_UnknownProjectListsAllowedNames(t *testing.T) {
	v := Validator{Catalog: testCatalog()}
	entry := map[string]any{
		"project":        "UNKNOWN",
		"subject":        "x",
		"duration_hours": json.Number("1"),
		"activity":       "Development",
		"is_scrum":       false,
	}
	errs := v.Validate(entry, 3)
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %v", errs)
	}
	e := errs[0]
	if e.Field != "project" || e.Index != 3 {
		t.Fatalf("unexpected error: %+v", e)
	}
	for _, name := range []string{"UNKNOWN", `"HRIS"`, `"CBL"`} {
		if !strings.Contains(e.Message, name) {
			t.Fatalf("message %q should mention %s", e.Message, name)
		}
	}
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	v := Validator{Catalog: testCatalog()}
	entry := map[string]any{
		"project":         nil,
		"subject":         "   ",
		"duration_hours":  "abc",
		"activity":        "Dancing",
		"is_scrum":        "yes",
		"break_hours":     json.Number("-1"),
		"work_package_id": json.Number("0"),
	}
	errs := v.Validate(entry, 1)
	want := []string{"project", "subject", "duration_hours", "activity", "is_scrum", "break_hours", "work_package_id"}
	if len(errs) != len(want) {
		t.Fatalf("expected %d errors, got %d: %v", len(want), len(errs), errs)
	}
	for i, f := range want {
		if errs[i].Field != f {
			t.Fatalf("error %d: field %q, want %q", i, errs[i].Field, f)
		}
	}
}

func TestValidate_MissingFields(t *testing.T) {
	v := Validator{Catalog: testCatalog()}
	errs := v.Validate(map[string]any{}, 2)
	if len(errs) != len(requiredFields) {
		t.Fatalf("expected %d errors, got %v", len(requiredFields), errs)
	}
	if !strings.Contains(errs[0].Message, "missing required field 'project'") {
		t.Fatalf("unexpected message %q", errs[0].Message)
	}
}

func TestValidate_Coercions(t *testing.T) {
	v := Validator{Catalog: testCatalog()}
	entry := validEntry()
	entry["duration_hours"] = "2h"
	entry["break_hours"] = "0.25"
	entry["work_package_id"] = "42"
	if errs := v.Validate(entry, 1); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	raw := v.Raw(entry, 1)
	if raw.Hours != 2 || raw.BreakHours != 0.25 || raw.TaskID != 42 {
		t.Fatalf("unexpected raw entry %+v", raw)
	}
}

func TestValidate_ZeroDurationRejected(t *testing.T) {
	v := Validator{Catalog: testCatalog()}
	entry := validEntry()
	entry["duration_hours"] = json.Number("0")
	errs := v.Validate(entry, 1)
	if len(errs) != 1 || errs[0].Field != "duration_hours" {
		t.Fatalf("expected a duration error, got %v", errs)
	}
}

func TestValidate_EmptyNamesRejected(t *testing.T) {
	v := Validator{Catalog: testCatalog()}
	entry := validEntry()
	entry["project"] = ""
	entry["activity"] = ""
	errs := v.Validate(entry, 2)
	if len(errs) != 2 || errs[0].Field != "project" || errs[1].Field != "activity" {
		t.Fatalf("expected project and activity errors, got %v", errs)
	}
	if !strings.Contains(errs[0].Message, `"HRIS"`) || !strings.Contains(errs[1].Message, `"Development"`) {
		t.Fatalf("messages should list allowed names: %v", errs)
	}
}

func TestValidate_OutOfRangeHoursRejected(t *testing.T) {
	v := Validator{Catalog: testCatalog()}
	for _, tc := range []struct {
		field, value string
	}{
		{"duration_hours", "1e9"},
		{"duration_hours", "24.5"},
		{"break_hours", "1e9"},
	} {
		entry := validEntry()
		entry[tc.field] = json.Number(tc.value)
		errs := v.Validate(entry, 1)
		if len(errs) != 1 || errs[0].Field != tc.field {
			t.Fatalf("%s=%s: expected one %s error, got %v", tc.field, tc.value, tc.field, errs)
		}
	}
	entry := validEntry()
	entry["duration_hours"] = json.Number("24")
	if errs := v.Validate(entry, 1); len(errs) != 0 {
		t.Fatalf("24 hours should be accepted, got %v", errs)
	}
}

func TestValidate_FractionalTaskIDRejected(t *testing.T) {
	v := Validator{Catalog: testCatalog()}
	entry := validEntry()
	entry["work_package_id"] = json.Number("4.5")
	errs := v.Validate(entry, 1)
	if len(errs) != 1 || errs[0].Field != "work_package_id" {
		t.Fatalf("expected a work_package_id error, got %v", errs)
	}
}

func TestValidate_DescriptionFallback(t *testing.T) {
	v := Validator{Catalog: testCatalog()}
	entry := validEntry()
	delete(entry, "subject")
	entry["description"] = "From description"
	if errs := v.Validate(entry, 1); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if got := v.Raw(entry, 1).Subject; got != "From description" {
		t.Fatalf("subject = %q", got)
	}
	if _, ok := entry["subject"]; ok {
		t.Fatal("Validate must not mutate its input")
	}
}
