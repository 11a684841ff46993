// Package migrate applies the embedded MySQL schema of the journal.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

const erNoSuchTable = 1146

// Migration is one embedded schema file.
type Migration struct {
	Version int
	Name    string
}

// Status splits the embedded migrations by whether the database has them.
type Status struct {
	Applied []Migration
	Pending []Migration
}

// Current is the highest applied version, 0 when nothing is applied.
func (s Status) Current() int {
	if len(s.Applied) == 0 {
		return 0
	}
	return s.Applied[len(s.Applied)-1].Version
}

// UpToDate reports whether no migration is pending.
func (s Status) UpToDate() bool { return len(s.Pending) == 0 }

// Migrations lists the embedded files in version order.
func Migrations() ([]Migration, error) {
	files, err := fs.Glob(migrationsFS, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	out := make([]Migration, 0, len(files))
	seen := make(map[int]string)
	for _, f := range files {
		base := path.Base(f)
		ver, err := parseVersion(base)
		if err != nil {
			return nil, fmt.Errorf("invalid migration filename %q: %w", base, err)
		}
		if prev, dup := seen[ver]; dup {
			return nil, fmt.Errorf("migrations %q and %q share version %d", prev, base, ver)
		}
		seen[ver] = base
		out = append(out, Migration{Version: ver, Name: base})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Check reports the schema state of the database at dsn without changing it.
// A database that never ran a migration has every migration pending.
func Check(ctx context.Context, dsn string) (Status, error) {
	db, err := open(ctx, dsn)
	if err != nil {
		return Status{}, err
	}
	defer db.Close()
	return status(ctx, db)
}

// Run applies pending migrations to the database at dsn. Each file is
// executed as one statement batch, so the DSN needs multiStatements=true.
func Run(ctx context.Context, dsn string, log *slog.Logger) error {
	db, err := open(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := ensureMigrationsTable(ctx, db); err != nil {
		return err
	}
	st, err := status(ctx, db)
	if err != nil {
		return err
	}
	if st.UpToDate() {
		log.Debug("journal schema up to date", slog.Int("version", st.Current()))
		return nil
	}
	for _, m := range st.Pending {
		b, err := fs.ReadFile(migrationsFS, "sql/"+m.Name)
		if err != nil {
			return err
		}
		log.Info("applying journal migration", slog.Int("version", m.Version), slog.String("file", m.Name))
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("applying %s: %w", m.Name, err)
		}
		if err := recordApplied(ctx, db, m.Version); err != nil {
			return err
		}
	}
	return nil
}

func open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func status(ctx context.Context, db *sql.DB) (Status, error) {
	migrations, err := Migrations()
	if err != nil {
		return Status{}, err
	}
	applied, err := loadApplied(ctx, db)
	if err != nil {
		return Status{}, err
	}
	return split(migrations, applied), nil
}

func split(migrations []Migration, applied map[int]bool) Status {
	var st Status
	for _, m := range migrations {
		if applied[m.Version] {
			st.Applied = append(st.Applied, m)
		} else {
			st.Pending = append(st.Pending, m)
		}
	}
	return st
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	const ddl = `CREATE TABLE IF NOT EXISTS worklog_schema_migrations (
		version BIGINT PRIMARY KEY,
		applied_at DATETIME(6) NOT NULL
	) ENGINE=InnoDB;`
	_, err := db.ExecContext(ctx, ddl)
	return err
}

// loadApplied treats a missing bookkeeping table as an empty one.
func loadApplied(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	m := make(map[int]bool)
	rows, err := db.QueryContext(ctx, "SELECT version FROM worklog_schema_migrations")
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == erNoSuchTable {
			return m, nil
		}
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		m[v] = true
	}
	return m, rows.Err()
}

func recordApplied(ctx context.Context, db *sql.DB, version int) error {
	_, err := db.ExecContext(ctx, "INSERT INTO worklog_schema_migrations(version, applied_at) VALUES(?, ?)", version, time.Now().UTC())
	return err
}

// parseVersion reads the numeric prefix of names like 0001_description.sql.
func parseVersion(name string) (int, error) {
	i := strings.IndexByte(name, '_')
	if i <= 0 {
		return 0, fmt.Errorf("missing prefix number")
	}
	return strconv.Atoi(name[:i])
}
