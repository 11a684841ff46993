package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	msql "worklog-sync/internal/adapter/mysql"
	op "worklog-sync/internal/adapter/openproject"
	"worklog-sync/internal/adapter/sqlite"
	"worklog-sync/internal/adapter/terminal"
	"worklog-sync/internal/config"
	"worklog-sync/internal/domain"
	"worklog-sync/internal/migrate"
	"worklog-sync/internal/ports"
	"worklog-sync/internal/usecase"
	"worklog-sync/internal/worklog"
)

// ErrNoEntries is returned when an input file holds nothing to process.
var ErrNoEntries = errors.New("no valid time entries found in the work log file")

// App wires adapters and use cases.
type App struct {
	log       *slog.Logger
	cfg       config.Config
	catalog   domain.Catalog
	scheduler *worklog.Scheduler
	loader    *worklog.Loader
	in        io.Reader
	reporter  *terminal.Reporter
	out       io.Writer
}

// New builds an app that prompts on in and reports on out.
func New(log *slog.Logger, cfg config.Config, in io.Reader, out io.Writer) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	catalog := cfg.Catalog()
	scheduler := worklog.NewScheduler(catalog, loc, log)
	return &App{
		log:       log,
		cfg:       cfg,
		catalog:   catalog,
		scheduler: scheduler,
		loader:    worklog.NewLoader(scheduler, log),
		in:        in,
		reporter:  terminal.NewReporter(out),
		out:       out,
	}, nil
}

func (a *App) client() (*op.Client, error) {
	if err := a.cfg.RequireRemote(); err != nil {
		return nil, err
	}
	return op.NewClient(a.cfg.OpenProject.BaseURL, a.cfg.OpenProject.APIToken, a.log), nil
}

func (a *App) reconciler(remote ports.TaskService) *usecase.Reconciler {
	return &usecase.Reconciler{
		Log:           a.log,
		Remote:        remote,
		Catalog:       a.catalog,
		PageSize:      a.cfg.OpenProject.PageSize,
		FailClosed:    a.cfg.Worklog.DuplicateCheck == config.FailClosed,
		TaskTypeID:    a.cfg.OpenProject.TypeID,
		ResponsibleID: a.cfg.OpenProject.ResponsibleID,
		AssigneeID:    a.cfg.OpenProject.AssigneeID,
	}
}

// openJournal picks MySQL when a DSN is configured, the local file
// otherwise. With migrateSchema the MySQL schema is brought up to date first.
func (a *App) openJournal(ctx context.Context, migrateSchema bool) (ports.Journal, func() error, error) {
	if dsn := a.cfg.MySQL.DSN; dsn != "" {
		if migrateSchema {
			if err := migrate.Run(ctx, dsn, a.log); err != nil {
				return nil, nil, fmt.Errorf("migrate journal: %w", err)
			}
		}
		j, err := msql.Open(ctx, dsn, a.log)
		if err != nil {
			return nil, nil, err
		}
		return j, j.Close, nil
	}
	j, err := sqlite.Open(a.cfg.Worklog.JournalPath, a.log)
	if err != nil {
		return nil, nil, err
	}
	return j, j.Close, nil
}

func (a *App) load(path string) (worklog.Batch, error) {
	batch, err := a.loader.LoadFile(path)
	if err != nil {
		return batch, err
	}
	a.reporter.Rejected(batch.Rejected)
	if len(batch.Days) == 0 {
		return batch, ErrNoEntries
	}
	return batch, nil
}

// Run processes the work log at path interactively. A journal that cannot be
// opened is logged and the run continues without one.
func (a *App) Run(ctx context.Context, path string) (usecase.Summary, error) {
	remote, err := a.client()
	if err != nil {
		return usecase.Summary{}, err
	}
	batch, err := a.load(path)
	if err != nil {
		return usecase.Summary{}, err
	}

	journal, closeJournal, err := a.openJournal(ctx, true)
	if err != nil {
		a.log.Warn("journal unavailable, outcomes will not be recorded", slog.String("error", err.Error()))
		journal = nil
	} else {
		defer closeJournal()
	}

	runID := uuid.NewString()
	a.log.Info("starting run", slog.String("run_id", runID), slog.String("file", path), slog.Int("dates", len(batch.Days)))
	reconciler := a.reconciler(remote)
	uc := &usecase.WorkLogUseCase{
		Log:       a.log,
		Scheduler: a.scheduler,
		Planner:   &usecase.Planner{Log: a.log, Reconciler: reconciler},
		Driver: &usecase.Driver{
			Log:        a.log,
			Remote:     remote,
			Reconciler: reconciler,
			Catalog:    a.catalog,
			Retry:      usecase.RetryPolicy{Attempts: a.cfg.Worklog.RetryAttempts, Backoff: a.cfg.Worklog.RetryBackoff},
			RunID:      runID,
		},
		Prompter: terminal.NewPrompter(a.in, a.out),
		Reporter: a.reporter,
		Journal:  journal,
	}
	return uc.Run(ctx, batch)
}

// Plan prints the dry-run analysis of the work log at path. Offline plans
// only print the computed schedules.
func (a *App) Plan(ctx context.Context, path string, offline bool) error {
	batch, err := a.load(path)
	if err != nil {
		return err
	}
	if offline {
		a.reporter.Schedules(batch.Days)
		return nil
	}
	remote, err := a.client()
	if err != nil {
		return err
	}
	uc := &usecase.WorkLogUseCase{
		Log:      a.log,
		Planner:  &usecase.Planner{Log: a.log, Reconciler: a.reconciler(remote), VerifyTasks: true},
		Reporter: a.reporter,
	}
	_, err = uc.DryRun(ctx, batch)
	return err
}

// Check verifies credentials, mappings and permissions against the server.
func (a *App) Check(ctx context.Context) error {
	remote, err := a.client()
	if err != nil {
		return err
	}
	d := &usecase.Diagnostics{
		Log:            a.log,
		Directory:      remote,
		Catalog:        a.catalog,
		ResponsibleID:  a.cfg.OpenProject.ResponsibleID,
		AssigneeID:     a.cfg.OpenProject.AssigneeID,
		ConnectTimeout: 10 * time.Second,
		LookupTimeout:  5 * time.Second,
	}
	rep, err := d.Check(ctx)
	if err != nil {
		return err
	}
	a.reporter.Check(rep)
	if rep.Accessible() < len(rep.Projects) {
		return fmt.Errorf("%d of %d configured projects are not accessible", len(rep.Projects)-rep.Accessible(), len(rep.Projects))
	}
	return nil
}

// History prints the newest journal rows. For MySQL journals it reports the
// schema state first and never migrates.
func (a *App) History(ctx context.Context, limit int) error {
	if dsn := a.cfg.MySQL.DSN; dsn != "" {
		st, err := migrate.Check(ctx, dsn)
		if err != nil {
			return fmt.Errorf("journal schema: %w", err)
		}
		a.reporter.Schema(st)
		if st.Current() == 0 {
			return nil
		}
	}
	journal, closeJournal, err := a.openJournal(ctx, false)
	if err != nil {
		return err
	}
	defer closeJournal()
	rows, err := journal.Recent(ctx, limit)
	if err != nil {
		return err
	}
	a.reporter.History(rows)
	return nil
}
