package openproject

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"worklog-sync/internal/domain"
)

// Client implements ports.TaskService and ports.Directory against the
// OpenProject API v3.
type Client struct {
	baseURL  string
	apiToken string
	http     *http.Client
	log      *slog.Logger
}

func NewClient(baseURL, apiToken string, log *slog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// GetTask fetches a work package by id.
// GET /api/v3/work_packages/{id}
func (c *Client) GetTask(ctx context.Context, id int64) (domain.RemoteTask, error) {
	var raw rawWorkPackage
	if err := c.get(ctx, "get work package", fmt.Sprintf("/api/v3/work_packages/%d", id), nil, &raw); err != nil {
		return domain.RemoteTask{}, err
	}
	return raw.domain(), nil
}

// CurrentUser returns the account behind the API token.
// GET /api/v3/users/me
func (c *Client) CurrentUser(ctx context.Context) (domain.User, error) {
	var raw rawUser
	if err := c.get(ctx, "get current user", "/api/v3/users/me", nil, &raw); err != nil {
		return domain.User{}, err
	}
	return raw.domain(), nil
}

// GetUser fetches a user by id.
// GET /api/v3/users/{id}
func (c *Client) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var raw rawUser
	if err := c.get(ctx, "get user", fmt.Sprintf("/api/v3/users/%d", id), nil, &raw); err != nil {
		return domain.User{}, err
	}
	return raw.domain(), nil
}

// GetProject fetches a project by id.
// GET /api/v3/projects/{id}
func (c *Client) GetProject(ctx context.Context, id int64) (domain.Project, error) {
	var raw rawProject
	if err := c.get(ctx, "get project", fmt.Sprintf("/api/v3/projects/%d", id), nil, &raw); err != nil {
		return domain.Project{}, err
	}
	return raw.domain(), nil
}

// ListProjects returns the projects visible to the token.
// GET /api/v3/projects
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var coll collection[rawProject]
	if err := c.get(ctx, "list projects", "/api/v3/projects", nil, &coll); err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(coll.Embedded.Elements))
	for _, p := range coll.Embedded.Elements {
		out = append(out, p.domain())
	}
	return out, nil
}

// ListProjectTasks returns one page of a project's work packages.
// GET /api/v3/projects/{id}/work_packages?pageSize=N&offset=page
func (c *Client) ListProjectTasks(ctx context.Context, projectID int64, page, pageSize int) (domain.TaskPage, error) {
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("offset", strconv.Itoa(page))
	var coll collection[rawWorkPackage]
	if err := c.get(ctx, "list work packages", fmt.Sprintf("/api/v3/projects/%d/work_packages", projectID), q, &coll); err != nil {
		return domain.TaskPage{}, err
	}
	out := domain.TaskPage{Total: coll.Total, Tasks: make([]domain.RemoteTask, 0, len(coll.Embedded.Elements))}
	for _, wp := range coll.Embedded.Elements {
		out.Tasks = append(out.Tasks, wp.domain())
	}
	return out, nil
}

// ListTimeRecords returns every time entry visible to the token, following
// pages until the reported total is reached or a page comes back empty.
// GET /api/v3/time_entries?pageSize=N&offset=page
func (c *Client) ListTimeRecords(ctx context.Context) ([]domain.TimeRecord, error) {
	const pageSize = 100
	var out []domain.TimeRecord
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("pageSize", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(page))
		var coll collection[rawTimeEntry]
		if err := c.get(ctx, "list time entries", "/api/v3/time_entries", q, &coll); err != nil {
			return nil, err
		}
		for _, te := range coll.Embedded.Elements {
			out = append(out, te.domain())
		}
		if len(coll.Embedded.Elements) == 0 || len(out) >= coll.Total {
			return out, nil
		}
	}
}

// CreateTask creates a work package.
// POST /api/v3/work_packages
func (c *Client) CreateTask(ctx context.Context, t domain.NewTask) (domain.RemoteTask, error) {
	body := map[string]any{
		"subject": t.Subject,
	}
	links := map[string]any{
		"project": link(fmt.Sprintf("/api/v3/projects/%d", t.ProjectID)),
		"type":    link(fmt.Sprintf("/api/v3/types/%d", t.TypeID)),
		"status":  link(fmt.Sprintf("/api/v3/statuses/%d", t.StatusID)),
	}
	if t.Description != "" {
		body["description"] = map[string]string{"format": "markdown", "raw": t.Description}
	}
	if t.ResponsibleID != 0 {
		links["responsible"] = link(fmt.Sprintf("/api/v3/users/%d", t.ResponsibleID))
	}
	if t.AssigneeID != 0 {
		links["assignee"] = link(fmt.Sprintf("/api/v3/users/%d", t.AssigneeID))
	}
	body["_links"] = links

	var raw rawWorkPackage
	if err := c.post(ctx, "create work package", "/api/v3/work_packages", body, &raw); err != nil {
		return domain.RemoteTask{}, err
	}
	c.log.Debug("created work package", slog.Int64("id", raw.ID), slog.String("subject", raw.Subject))
	return raw.domain(), nil
}

// CreateTimeRecord logs time on a work package.
// POST /api/v3/time_entries
func (c *Client) CreateTimeRecord(ctx context.Context, r domain.NewTimeRecord) (domain.TimeRecord, error) {
	body := map[string]any{
		"spentOn": r.SpentOn.String(),
		"hours":   isoHours(r.Hours),
		"comment": r.Comment,
		"_links": map[string]any{
			"workPackage": link(fmt.Sprintf("/api/v3/work_packages/%d", r.TaskID)),
			"activity":    link(fmt.Sprintf("/api/v3/time_entries/activities/%d", r.ActivityID)),
		},
	}
	var raw rawTimeEntry
	if err := c.post(ctx, "create time entry", "/api/v3/time_entries", body, &raw); err != nil {
		return domain.TimeRecord{}, err
	}
	return raw.domain(), nil
}

// ProbeForm posts an empty payload to a form endpoint, which OpenProject
// validates without creating anything. It reports whether the token may
// create resources there.
func (c *Client) ProbeForm(ctx context.Context, p string) (bool, error) {
	err := c.post(ctx, "probe form", p, map[string]any{}, nil)
	if err == nil {
		return true, nil
	}
	var re *domain.RemoteError
	if errors.As(err, &re) {
		switch re.StatusCode {
		case http.StatusUnprocessableEntity:
			return true, nil
		case http.StatusForbidden:
			return false, nil
		}
	}
	return false, err
}

func (c *Client) get(ctx context.Context, op, p string, q url.Values, out any) error {
	return c.do(ctx, op, http.MethodGet, p, q, nil, out)
}

func (c *Client) post(ctx context.Context, op, p string, body, out any) error {
	return c.do(ctx, op, http.MethodPost, p, nil, body, out)
}

func (c *Client) do(ctx context.Context, op, method, p string, q url.Values, body, out any) error {
	if c.apiToken == "" {
		return errors.New("missing api token")
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	u.Path = path.Join(u.Path, p)
	if q != nil {
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth("apikey", c.apiToken)
	req.Header.Set("Accept", "application/hal+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return remoteError(op, resp.StatusCode, b)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// remoteError extracts the embedded validation messages of a 422 answer.
func remoteError(op string, status int, body []byte) *domain.RemoteError {
	re := &domain.RemoteError{Op: op, StatusCode: status, Body: string(body)}
	if status != http.StatusUnprocessableEntity {
		return re
	}
	var e rawError
	if err := json.Unmarshal(body, &e); err != nil {
		return re
	}
	for _, inner := range e.Embedded.Errors {
		msg := inner.Message
		if msg == "" {
			msg = "Unknown error"
		}
		re.Messages = append(re.Messages, msg)
	}
	if len(re.Messages) == 0 && e.Message != "" {
		re.Messages = []string{e.Message}
	}
	return re
}

func link(href string) map[string]string { return map[string]string{"href": href} }

// isoHours renders hours as an ISO 8601 duration, e.g. PT1.5H.
func isoHours(h float64) string {
	return "PT" + strconv.FormatFloat(h, 'f', -1, 64) + "H"
}

// hrefID returns the trailing numeric id of a HAL link, or 0.
func hrefID(href string) int64 {
	i := strings.LastIndexByte(href, '/')
	id, err := strconv.ParseInt(href[i+1:], 10, 64)
	if err != nil {
		return 0
	}
	return id
}
