package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
	_ "modernc.org/sqlite"
)

var _ contractx.MemoryStore = (*SQLiteStore)(nil)

// SQLiteStore keeps the memory log in an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS memory_records (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		text       TEXT NOT NULL,
		day        TEXT NOT NULL,
		meal_type  TEXT NOT NULL,
		embedding  TEXT,
		created_at TEXT NOT NULL
	);`)
	return err
}

func (s *SQLiteStore) Append(ctx context.Context, records ...contractx.MemoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO memory_records (id, text, day, meal_type, embedding, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		embedding, err := sonic.MarshalString(r.Embedding)
		if err != nil {
			return fmt.Errorf("encode embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Text, string(r.Metadata.Day), string(r.Metadata.MealType), embedding, r.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert memory record: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) SimilaritySearch(ctx context.Context, embedding []float32, k int, minScore float64) ([]contractx.ScoredRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, day, meal_type, embedding, created_at FROM memory_records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query memory records: %w", err)
	}
	defer rows.Close()

	var records []contractx.MemoryRecord
	for rows.Next() {
		var (
			r             contractx.MemoryRecord
			day, mealType string
			rawEmbedding  sql.NullString
			createdAt     string
		)
		if err := rows.Scan(&r.ID, &r.Text, &day, &mealType, &rawEmbedding, &createdAt); err != nil {
			return nil, fmt.Errorf("scan memory record: %w", err)
		}
		r.Metadata = contractx.RecordMetadata{Day: contractx.DayOfWeek(day), MealType: contractx.MealType(mealType)}
		if rawEmbedding.Valid && rawEmbedding.String != "" {
			if err := sonic.UnmarshalString(rawEmbedding.String, &r.Embedding); err != nil {
				return nil, fmt.Errorf("decode embedding for %s: %w", r.ID, err)
			}
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rank(records, embedding, k, minScore), nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count memory records: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
