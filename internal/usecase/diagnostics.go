package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"worklog-sync/internal/domain"
	"worklog-sync/internal/ports"
)

// ProjectCheck is the result of looking up one configured project.
type ProjectCheck struct {
	Name   string
	ID     int64
	Remote *domain.Project
	Err    error
}

// UserCheck is the result of looking up a configured user id.
type UserCheck struct {
	Role string
	ID   int64
	User *domain.User
	Err  error
}

// CheckReport is the outcome of a connectivity check.
type CheckReport struct {
	User          domain.User
	Projects      []ProjectCheck
	Users         []UserCheck
	Available     []domain.Project
	CanCreateTask bool
	CanLogTime    bool
}

// Accessible counts the configured projects the token can read.
func (r CheckReport) Accessible() int {
	n := 0
	for _, p := range r.Projects {
		if p.Err == nil {
			n++
		}
	}
	return n
}

// SuggestedMappings renders the remote projects as mapping-file lines.
func (r CheckReport) SuggestedMappings() []string {
	out := make([]string, 0, len(r.Available))
	for _, p := range r.Available {
		out = append(out, fmt.Sprintf("%s: %d", strings.ToUpper(p.Identifier), p.ID))
	}
	return out
}

// Diagnostics checks credentials and configuration against the server.
type Diagnostics struct {
	Log           *slog.Logger
	Directory     ports.Directory
	Catalog       domain.Catalog
	ResponsibleID int64
	AssigneeID    int64
	// ConnectTimeout bounds the initial authentication call.
	ConnectTimeout time.Duration
	// LookupTimeout bounds each later lookup.
	LookupTimeout time.Duration
}

// Check authenticates and then inspects projects, users and permissions.
// Only a failed authentication is returned as an error.
func (d *Diagnostics) Check(ctx context.Context) (CheckReport, error) {
	var rep CheckReport

	user, err := withTimeout(ctx, d.connectTimeout(), func(ctx context.Context) (domain.User, error) {
		return d.Directory.CurrentUser(ctx)
	})
	if err != nil {
		return rep, fmt.Errorf("authenticate: %w", err)
	}
	rep.User = user
	d.Log.Info("api connection successful", slog.String("user", user.Name), slog.Int64("id", user.ID))

	names := d.Catalog.ProjectNames()
	for _, name := range names {
		id, _ := d.Catalog.ProjectID(name)
		pc := ProjectCheck{Name: name, ID: id}
		p, err := withTimeout(ctx, d.lookupTimeout(), func(ctx context.Context) (domain.Project, error) {
			return d.Directory.GetProject(ctx, id)
		})
		if err != nil {
			pc.Err = err
		} else {
			pc.Remote = &p
		}
		rep.Projects = append(rep.Projects, pc)
	}

	if projects, err := withTimeout(ctx, d.connectTimeout(), d.Directory.ListProjects); err != nil {
		d.Log.Warn("could not list projects", slog.String("error", err.Error()))
	} else {
		sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
		rep.Available = projects
	}

	if len(names) > 0 {
		first, _ := d.Catalog.ProjectID(names[0])
		rep.CanCreateTask = d.probe(ctx, fmt.Sprintf("/api/v3/projects/%d/work_packages/form", first))
	}
	rep.CanLogTime = d.probe(ctx, "/api/v3/time_entries/form")

	for _, u := range []struct {
		role string
		id   int64
	}{{"Accountable", d.ResponsibleID}, {"Assignee", d.AssigneeID}} {
		uc := UserCheck{Role: u.role, ID: u.id}
		if u.id != 0 {
			found, err := withTimeout(ctx, d.lookupTimeout(), func(ctx context.Context) (domain.User, error) {
				return d.Directory.GetUser(ctx, u.id)
			})
			if err != nil {
				uc.Err = err
			} else {
				uc.User = &found
			}
		}
		rep.Users = append(rep.Users, uc)
	}
	return rep, nil
}

func (d *Diagnostics) probe(ctx context.Context, path string) bool {
	ok, err := withTimeout(ctx, d.lookupTimeout(), func(ctx context.Context) (bool, error) {
		return d.Directory.ProbeForm(ctx, path)
	})
	if err != nil {
		d.Log.Warn("permission check inconclusive", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	return ok
}

func (d *Diagnostics) connectTimeout() time.Duration {
	if d.ConnectTimeout > 0 {
		return d.ConnectTimeout
	}
	return 10 * time.Second
}

func (d *Diagnostics) lookupTimeout() time.Duration {
	if d.LookupTimeout > 0 {
		return d.LookupTimeout
	}
	return 5 * time.Second
}

func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	c, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(c)
}
