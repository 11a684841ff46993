package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	a, err := New(quietLogger(), testConfig(t), strings.NewReader(""), io.Discard)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv := httptest.NewServer(a.HTTPServer(":0").Handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("healthz = %d %q", resp.StatusCode, body)
	}
}

func TestSchedule_Standup(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/schedule", "application/json", strings.NewReader(standupDoc))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got scheduleResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Days) != 1 || len(got.Days[0].Entries) != 1 {
		t.Fatalf("unexpected days %+v", got.Days)
	}
	e := got.Days[0].Entries[0]
	if e.Start != "10:00" || e.End != "10:30" || e.Kind != "fixed-slot" || e.TaskID != 7 {
		t.Fatalf("unexpected entry %+v", e)
	}
	if len(got.Rejected) != 1 || got.Rejected[0].Index != 2 || got.Rejected[0].Errors[0].Field != "project" {
		t.Fatalf("unexpected rejected %+v", got.Rejected)
	}
}

func TestSchedule_Reanchor(t *testing.T) {
	srv := newTestServer(t)
	doc := `{"logs":[{"date":"sept-07-2025","entries":[
	  {"project":"HRIS","subject":"A","duration_hours":1,"activity":"Development","break_hours":0.25},
	  {"project":"CBL","subject":"B","duration_hours":2,"activity":"Testing"}
	]}]}`
	resp, err := http.Post(srv.URL+"/schedule?start=8:30", "application/json", strings.NewReader(doc))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var got scheduleResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	es := got.Days[0].Entries
	if es[0].Start != "08:45" || es[0].End != "09:45" || es[1].Start != "09:45" || es[1].End != "11:45" {
		t.Fatalf("unexpected timeline %+v", es)
	}
	if got.Days[0].TotalHours != 3 {
		t.Fatalf("total = %v", got.Days[0].TotalHours)
	}
}

func TestSchedule_Errors(t *testing.T) {
	srv := newTestServer(t)
	cases := []struct {
		name, method, query, body string
		want                      int
	}{
		{"get", http.MethodGet, "", "", http.StatusMethodNotAllowed},
		{"bad start", http.MethodPost, "?start=noon", standupDoc, http.StatusBadRequest},
		{"no logs", http.MethodPost, "", `{"other":1}`, http.StatusBadRequest},
		{"not json", http.MethodPost, "", `{`, http.StatusBadRequest},
		{"too large", http.MethodPost, "", `{"logs":"` + strings.Repeat("x", maxDocumentBytes) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req, _ := http.NewRequest(c.method, srv.URL+"/schedule"+c.query, strings.NewReader(c.body))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("do: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != c.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, c.want)
			}
			var body map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body["status"] != "error" {
				t.Fatalf("error body = %v (%v)", body, err)
			}
		})
	}
}
