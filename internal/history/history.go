// Package history persists the outcome of analysis runs in a local SQLite
// database so that scores can be compared across runs. Only results are
// stored; graphs are always rebuilt from their datasets.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/ria/internal/bipartite"
)

// ErrRunNotFound is returned when a run ID has no stored run.
var ErrRunNotFound = errors.New("history: run not found")

// Score kinds.
const (
	KindReviewer    = "reviewer"
	KindProduct     = "product"
	KindCredibility = "credibility"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    variant     TEXT NOT NULL,
    alpha       REAL NOT NULL,
    iterations  INTEGER NOT NULL,
    delta       REAL NOT NULL,
    converged   INTEGER NOT NULL,
    dataset     TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scores (
    run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    kind    TEXT NOT NULL,
    name    TEXT NOT NULL,
    value   REAL NOT NULL,
    PRIMARY KEY (run_id, kind, name)
);

CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at);
`

// Run is one stored analysis.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	Variant    string    `json:"variant" yaml:"variant"`
	Alpha      float64   `json:"alpha" yaml:"alpha"`
	Iterations int       `json:"iterations" yaml:"iterations"`
	Delta      float64   `json:"delta" yaml:"delta"`
	Converged  bool      `json:"converged" yaml:"converged"`
	Dataset    string    `json:"dataset,omitempty" yaml:"dataset,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Scores     []Score   `json:"scores,omitempty" yaml:"scores,omitempty"` // written by Record; Run and Runs leave it empty
}

// Score is one stored node value.
type Score struct {
	Kind  string  `json:"kind" yaml:"kind"`
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// Capture returns the reviewer scores, product summaries and product
// credibilities of g in graph order.
func Capture(g *bipartite.Graph) []Score {
	reviewers, products := g.Reviewers(), g.Products()
	out := make([]Score, 0, len(reviewers)+2*len(products))
	for _, r := range reviewers {
		out = append(out, Score{Kind: KindReviewer, Name: r.Name(), Value: r.AnomalousScore()})
	}
	cred := g.Credibility()
	for _, p := range products {
		out = append(out,
			Score{Kind: KindProduct, Name: p.Name(), Value: p.Summary().Score()},
			Score{Kind: KindCredibility, Name: p.Name(), Value: cred.Score(p)},
		)
	}
	return out
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path, enables WAL mode and creates
// the schema if needed.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores run and its scores in one transaction and returns the run
// ID. An empty ID gets a fresh UUID; a zero CreatedAt gets the current time.
func (s *Store) Record(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const insertRun = `
		INSERT INTO runs (id, variant, alpha, iterations, delta, converged, dataset, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertRun,
		run.ID, run.Variant, run.Alpha, run.Iterations, run.Delta,
		boolToInt(run.Converged), run.Dataset, run.CreatedAt.UTC().Format(timeLayout),
	); err != nil {
		return "", fmt.Errorf("history: insert run %s: %w", run.ID, err)
	}

	if len(run.Scores) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO scores (run_id, kind, name, value) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return "", fmt.Errorf("history: prepare score insert: %w", err)
		}
		defer stmt.Close()
		for _, sc := range run.Scores {
			if _, err := stmt.ExecContext(ctx, run.ID, sc.Kind, sc.Name, sc.Value); err != nil {
				return "", fmt.Errorf("history: insert score %s/%s: %w", sc.Kind, sc.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("history: commit run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const runColumns = `id, variant, alpha, iterations, delta, converged, dataset, created_at`

// Runs returns up to limit runs, newest first. A non-positive limit returns
// every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate runs: %w", err)
	}
	return runs, nil
}

// Run returns a single run without its scores.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Scores returns the scores stored for a run, grouped by kind and ordered by
// descending value within each kind.
func (s *Store) Scores(ctx context.Context, runID string) ([]Score, error) {
	if _, err := s.Run(ctx, runID); err != nil {
		return nil, err
	}
	const q = `
		SELECT kind, name, value FROM scores
		WHERE run_id = ?
		ORDER BY kind DESC, value DESC, name`
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("history: query scores %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Score
	for rows.Next() {
		var sc Score
		if err := rows.Scan(&sc.Kind, &sc.Name, &sc.Value); err != nil {
			return nil, fmt.Errorf("history: scan score: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate scores: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run       Run
		converged int
		created   string
	)
	if err := row.Scan(&run.ID, &run.Variant, &run.Alpha, &run.Iterations, &run.Delta,
		&converged, &run.Dataset, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("history: scan run: %w", err)
	}
	run.Converged = converged != 0
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Run{}, fmt.Errorf("history: parse created_at of %s: %w", run.ID, err)
	}
	run.CreatedAt = t
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
