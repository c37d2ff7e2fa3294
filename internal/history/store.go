// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists research results in an append-only SQLite
// database and exports them as CSV, JSON, or YAML.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/portfolio-research/pkg/types"
)

const dbFile = "history.db"

// ErrNotFound is returned by Get when no run has the requested id.
var ErrNotFound = errors.New("history: entry not found")

// Entry is one stored research run.
type Entry struct {
	ID        int64                `json:"id" yaml:"id"`
	RunID     string               `json:"run_id" yaml:"run_id"`
	Targets   []string             `json:"vc_list" yaml:"vc_list"`
	CreatedAt time.Time            `json:"criado_em" yaml:"criado_em"`
	Success   bool                 `json:"sucesso" yaml:"sucesso"`
	Result    types.ResearchResult `json:"resultado" yaml:"resultado"`
}

// RecordHit is a stored record found by FindRecords.
type RecordHit struct {
	EntryID   int64               `json:"historico_id" yaml:"historico_id"`
	CreatedAt time.Time           `json:"criado_em" yaml:"criado_em"`
	Record    types.StartupRecord `json:"startup" yaml:"startup"`
}

// Store manages the history SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates dataDir/history.db and its schema.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	dir := cfg.DataDir
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			targets TEXT NOT NULL,
			created_at TEXT NOT NULL,
			success INTEGER NOT NULL,
			result TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			name_key TEXT NOT NULL,
			nome TEXT NOT NULL,
			site TEXT,
			setor TEXT,
			ano_fundacao TEXT,
			valor_investimento TEXT,
			rodada TEXT,
			data_investimento TEXT,
			vc_investidor TEXT,
			descricao_breve TEXT,
			linkedin_fundador TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_run_id ON records(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_records_name_key ON records(name_key)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save appends result and its records and returns the new entry id.
func (s *Store) Save(ctx context.Context, result types.ResearchResult) (int64, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("marshaling result: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, targets, created_at, success, result) VALUES (?, ?, ?, ?, ?)`,
		result.Metadata.RunID,
		strings.Join(result.Metadata.Targets, ", "),
		time.Now().UTC().Format(time.RFC3339Nano),
		result.Success,
		string(data),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (
		run_id, position, name_key, nome, site, setor, ano_fundacao, valor_investimento,
		rodada, data_investimento, vc_investidor, descricao_breve, linkedin_fundador
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing record insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range result.Records {
		args := []any{id, i, r.Key()}
		for _, v := range r.Values() {
			args = append(args, v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("inserting record %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return id, nil
}

// List returns up to limit entries, newest first. A limit of zero or less
// returns all entries.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, run_id, targets, created_at, success, result FROM runs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the entry with the given id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, run_id, targets, created_at, success, result FROM runs WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// FindRecords returns stored records whose name contains name,
// case-insensitively, newest run first.
func (s *Store) FindRecords(ctx context.Context, name string, limit int) ([]RecordHit, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(name))) + "%"

	rows, err := s.db.QueryContext(ctx, `SELECT runs.id, runs.created_at,
		r.nome, r.site, r.setor, r.ano_fundacao, r.valor_investimento, r.rodada,
		r.data_investimento, r.vc_investidor, r.descricao_breve, r.linkedin_fundador
		FROM records r JOIN runs ON runs.id = r.run_id
		WHERE r.name_key LIKE ? ESCAPE '\'
		ORDER BY runs.id DESC, r.position
		LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	hits := []RecordHit{}
	for rows.Next() {
		var h RecordHit
		var created string
		values := make([]string, len(types.RecordFields))
		dest := []any{&h.EntryID, &created}
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		h.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		h.Record = types.NewStartupRecord()
		for i, f := range types.RecordFields {
			h.Record.Set(f, values[i])
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var targets, created, result string
	if err := row.Scan(&e.ID, &e.RunID, &targets, &created, &e.Success, &result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scanning run: %w", err)
	}
	e.Targets = splitTargets(targets)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	if err := json.Unmarshal([]byte(result), &e.Result); err != nil {
		return Entry{}, fmt.Errorf("decoding result of run %d: %w", e.ID, err)
	}
	return e, nil
}

func splitTargets(s string) []string {
	out := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
