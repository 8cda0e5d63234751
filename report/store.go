package report

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"ringbench/bench"
	"ringbench/payload"
	"ringbench/ring"
)

const schema = `
CREATE TABLE IF NOT EXISTS trials (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	mode           TEXT    NOT NULL,
	producers      INTEGER NOT NULL,
	repeat         INTEGER NOT NULL,
	verify         TEXT    NOT NULL,
	received       INTEGER NOT NULL,
	measured       INTEGER NOT NULL,
	duration_ns    INTEGER NOT NULL,
	throughput_mps REAL    NOT NULL,
	started        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trials_mode ON trials (mode, producers);
`

// Store appends every trial to a sqlite database.
type Store struct {
	db     *sql.DB
	insert *sql.Stmt
}

// OpenStore opens (or creates) the database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "report: open %s", path)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "report: create schema")
	}
	insert, err := db.Prepare(`INSERT INTO trials
		(mode, producers, repeat, verify, received, measured, duration_ns, throughput_mps, started)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "report: prepare insert")
	}
	return &Store{db: db, insert: insert}, nil
}

func (s *Store) Record(t bench.Trial) error {
	_, err := s.insert.Exec(
		t.Mode.String(), t.Producers, t.Repeat, t.Verify.String(),
		int64(t.Received), int64(t.Measured), t.Duration.Nanoseconds(),
		t.Throughput, t.Started.UnixNano(),
	)
	return errors.Wrap(err, "report: insert trial")
}

// Trials returns every stored trial in insertion order.
func (s *Store) Trials() ([]bench.Trial, error) {
	rows, err := s.db.Query(`SELECT mode, producers, repeat, verify, received, measured,
		duration_ns, throughput_mps, started FROM trials ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "report: query trials")
	}
	defer rows.Close()

	var out []bench.Trial
	for rows.Next() {
		var (
			t                         bench.Trial
			mode, verify              string
			received, measured, durNs int64
			started                   int64
		)
		if err := rows.Scan(&mode, &t.Producers, &t.Repeat, &verify, &received, &measured,
			&durNs, &t.Throughput, &started); err != nil {
			return nil, errors.Wrap(err, "report: scan trial")
		}
		if t.Mode, err = ring.ParseMode(mode); err != nil {
			return nil, err
		}
		if t.Verify, err = payload.ParseKind(verify); err != nil {
			return nil, err
		}
		t.Received, t.Measured = uint64(received), uint64(measured)
		t.Duration = time.Duration(durNs)
		t.Started = time.Unix(0, started)
		out = append(out, t)
	}
	return out, errors.Wrap(rows.Err(), "report: iterate trials")
}

func (s *Store) Close() error {
	s.insert.Close()
	return s.db.Close()
}
