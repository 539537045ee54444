// Package wsstore implements the SQL-backed half of `)save`/`)load`
// (spec §6.2/§6.3/§6.4), grounded on the teacher's internal/database
// db_manager.go: a DSN opens a sql.DB through one of four blank-imported
// drivers, and rows carry both the function source text spec.md's
// `)save` actually emits and a position-independent workspace image as
// a denser, superset snapshot.
package wsstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/ncruces/go-strftime"
	_ "modernc.org/sqlite"
)

// maxHistory is the number of past saves kept per workspace id (spec
// SPEC_FULL §C: "last 8 saves... a strict superset of file-based
// )save/)load, never a replacement").
const maxHistory = 8

// schemes maps a `)save`/`)load` target's `driver:` prefix to the
// database/sql driver name registered by its blank import above.
var schemes = map[string]string{
	"sqlite":    "sqlite",
	"postgres":  "postgres",
	"mysql":     "mysql",
	"sqlserver": "sqlserver",
}

// ParseTarget splits a `)save`/`)load` argument into a driver name and
// DSN when it carries a recognized `driver:` prefix, reporting ok=false
// for plain filenames so the caller falls back to os.WriteFile/ReadFile
// (spec §6.3's file-based default, which wsstore only supplements).
func ParseTarget(target string) (driver, dsn string, ok bool) {
	i := strings.IndexByte(target, ':')
	if i <= 0 {
		return "", "", false
	}
	scheme := target[:i]
	driverName, known := schemes[scheme]
	if !known {
		return "", "", false
	}
	return driverName, target[i+1:], true
}

// Entry is one saved row: the function source text §6.3 round-trips
// through `)save`/`)load`, plus the binary image §6.4 describes as a
// denser alternative restore path.
type Entry struct {
	Seq     int
	SavedAt time.Time
	Source  string
	Image   []byte
}

// Store wraps one open database/sql handle against the apl_workspaces
// schema.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to driver/dsn and ensures the schema exists.
func Open(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("wsstore: open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("wsstore: ping %s: %w", driver, err)
	}
	s := &Store{db: db, driver: driver}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// ensureSchema is written with portable SQL types (TEXT/BLOB/INTEGER)
// so the same statement works across all four drivers; sqlite, mysql
// and postgres all accept it verbatim, and go-mssqldb maps BLOB/TEXT
// onto VARBINARY(MAX)/NVARCHAR(MAX) by its driver-level type coercion.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS apl_workspaces (
	wsid     TEXT    NOT NULL,
	seq      INTEGER NOT NULL,
	saved_at TEXT    NOT NULL,
	source   TEXT    NOT NULL,
	image    BLOB    NOT NULL,
	PRIMARY KEY (wsid, seq)
)`)
	if err != nil {
		return fmt.Errorf("wsstore: create schema: %w", err)
	}
	return nil
}

// Save inserts a new row for wsid and prunes everything past the last
// maxHistory entries (spec SPEC_FULL §C).
func (s *Store) Save(wsid, source string, image []byte, savedAt time.Time) error {
	var next int
	row := s.db.QueryRow(`SELECT COALESCE(MAX(seq), 0) + 1 FROM apl_workspaces WHERE wsid = ?`, wsid)
	if err := row.Scan(&next); err != nil {
		return fmt.Errorf("wsstore: next seq: %w", err)
	}

	ts := strftime.Format("%Y-%m-%d %H:%M:%S", savedAt)
	if _, err := s.db.Exec(
		`INSERT INTO apl_workspaces (wsid, seq, saved_at, source, image) VALUES (?, ?, ?, ?, ?)`,
		wsid, next, ts, source, image,
	); err != nil {
		return fmt.Errorf("wsstore: insert: %w", err)
	}

	rows, err := s.db.Query(`SELECT seq FROM apl_workspaces WHERE wsid = ? ORDER BY seq DESC`, wsid)
	if err != nil {
		return fmt.Errorf("wsstore: list seqs: %w", err)
	}
	var seqs []int
	for rows.Next() {
		var seq int
		if err := rows.Scan(&seq); err != nil {
			rows.Close()
			return err
		}
		seqs = append(seqs, seq)
	}
	rows.Close()
	if len(seqs) > maxHistory {
		for _, seq := range seqs[maxHistory:] {
			if _, err := s.db.Exec(`DELETE FROM apl_workspaces WHERE wsid = ? AND seq = ?`, wsid, seq); err != nil {
				return fmt.Errorf("wsstore: prune: %w", err)
			}
		}
	}
	return nil
}

// Load retrieves one entry for wsid: n==0 means the most recent save,
// n>=1 selects the n-th most recent (spec SPEC_FULL §C's `)load file@N`
// suffix, 1 being the latest, 2 the one before it, and so on).
func (s *Store) Load(wsid string, n int) (*Entry, error) {
	if n <= 0 {
		n = 1
	}
	rows, err := s.db.Query(
		`SELECT seq, saved_at, source, image FROM apl_workspaces WHERE wsid = ? ORDER BY seq DESC`,
		wsid,
	)
	if err != nil {
		return nil, fmt.Errorf("wsstore: query: %w", err)
	}
	defer rows.Close()

	idx := 0
	for rows.Next() {
		idx++
		var e Entry
		var ts string
		if err := rows.Scan(&e.Seq, &ts, &e.Source, &e.Image); err != nil {
			return nil, err
		}
		if idx == n {
			e.SavedAt, _ = time.Parse("2006-01-02 15:04:05", ts)
			return &e, nil
		}
	}
	return nil, fmt.Errorf("wsstore: no save @%d for workspace %q", n, wsid)
}

// History lists all saved entries for wsid, most recent first, for
// `)?`-style introspection and for resolving `@N` suffixes elsewhere.
func (s *Store) History(wsid string) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT seq, saved_at, source, image FROM apl_workspaces WHERE wsid = ? ORDER BY seq DESC`,
		wsid,
	)
	if err != nil {
		return nil, fmt.Errorf("wsstore: history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.Seq, &ts, &e.Source, &e.Image); err != nil {
			return nil, err
		}
		e.SavedAt, _ = time.Parse("2006-01-02 15:04:05", ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
