package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/logger"
)

var log *logrus.Entry

func init() {
	log = logger.WithName("history")
}

// SQLiteStore is the durable Store implementation backed by SQLite.
type SQLiteStore struct {
	db         *sql.DB
	insertOp   *sql.Stmt
	insertFile *sql.Stmt
}

// NewSQLiteStore opens (creating if needed) a history database at path.
// ":memory:" gives an ephemeral store for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	log.WithField("path", path).Debug("Opening history database")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS operations (
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		operation_type TEXT CHECK(operation_type IN ('rename', 'move')),
		file_count INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		directories_created TEXT,
		undone INTEGER DEFAULT 0
	)`); err != nil {
		return err
	}

	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS operation_files (
		operation_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		original_path TEXT NOT NULL,
		new_path TEXT,
		is_move INTEGER NOT NULL,
		success INTEGER NOT NULL,
		error TEXT,
		PRIMARY KEY (operation_id, seq),
		FOREIGN KEY (operation_id) REFERENCES operations(id) ON DELETE CASCADE
	)`); err != nil {
		return err
	}

	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_operations_timestamp ON operations(timestamp)"); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error
	s.insertOp, err = s.db.Prepare(`
		INSERT INTO operations (id, timestamp, operation_type, file_count, succeeded, failed, skipped, duration_ms, directories_created, undone)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	`)
	if err != nil {
		return err
	}
	s.insertFile, err = s.db.Prepare(`
		INSERT INTO operation_files (operation_id, seq, original_path, new_path, is_move, success, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.insertOp != nil {
		s.insertOp.Close()
	}
	if s.insertFile != nil {
		s.insertFile.Close()
	}
	return s.db.Close()
}

// Append records an entry and prunes beyond MaxEntries inside one
// transaction.
func (s *SQLiteStore) Append(entry models.OperationHistoryEntry) error {
	dirsJSON, err := json.Marshal(entry.DirectoriesCreated)
	if err != nil {
		return fmt.Errorf("failed to encode directories: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Stmt(s.insertOp).Exec(
		entry.ID,
		entry.Timestamp.UnixMilli(),
		string(entry.OperationType),
		entry.FileCount,
		entry.Summary.Succeeded,
		entry.Summary.Failed,
		entry.Summary.Skipped,
		entry.DurationMS,
		string(dirsJSON),
	); err != nil {
		return err
	}

	fileStmt := tx.Stmt(s.insertFile)
	for i, f := range entry.Files {
		success := 0
		if f.Success {
			success = 1
		}
		isMove := 0
		if f.IsMoveOperation {
			isMove = 1
		}
		if _, err := fileStmt.Exec(entry.ID, i, f.OriginalPath, nullable(f.NewPath), isMove, success, nullable(f.Error)); err != nil {
			return err
		}
	}

	// Prune oldest entries past the retention cap
	if _, err := tx.Exec(`
		DELETE FROM operations WHERE id IN (
			SELECT id FROM operations ORDER BY timestamp DESC, id LIMIT -1 OFFSET ?
		)
	`, MaxEntries); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		DELETE FROM operation_files WHERE operation_id NOT IN (SELECT id FROM operations)
	`); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"id":        entry.ID,
		"fileCount": entry.FileCount,
	}).Debug("Recorded operation history entry")
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (s *SQLiteStore) scanEntry(row *sql.Row) (*models.OperationHistoryEntry, error) {
	var entry models.OperationHistoryEntry
	var ts int64
	var opType string
	var dirsJSON sql.NullString
	var undone int

	err := row.Scan(
		&entry.ID, &ts, &opType, &entry.FileCount,
		&entry.Summary.Succeeded, &entry.Summary.Failed, &entry.Summary.Skipped,
		&entry.DurationMS, &dirsJSON, &undone,
	)
	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	entry.Timestamp = time.UnixMilli(ts).UTC()
	entry.OperationType = models.OperationType(opType)
	entry.Undone = undone == 1
	if dirsJSON.Valid && dirsJSON.String != "" && dirsJSON.String != "null" {
		if err := json.Unmarshal([]byte(dirsJSON.String), &entry.DirectoriesCreated); err != nil {
			return nil, fmt.Errorf("corrupt directories column for %s: %w", entry.ID, err)
		}
	}
	return &entry, nil
}

func (s *SQLiteStore) loadFiles(entry *models.OperationHistoryEntry) error {
	rows, err := s.db.Query(`
		SELECT original_path, new_path, is_move, success, error
		FROM operation_files WHERE operation_id = ? ORDER BY seq
	`, entry.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var f models.FileHistoryRecord
		var newPath, errMsg sql.NullString
		var isMove, success int
		if err := rows.Scan(&f.OriginalPath, &newPath, &isMove, &success, &errMsg); err != nil {
			return err
		}
		f.NewPath = newPath.String
		f.Error = errMsg.String
		f.IsMoveOperation = isMove == 1
		f.Success = success == 1
		entry.Files = append(entry.Files, f)
	}
	return rows.Err()
}

// Get returns one entry with its per-file records.
func (s *SQLiteStore) Get(id string) (*models.OperationHistoryEntry, error) {
	row := s.db.QueryRow(`
		SELECT id, timestamp, operation_type, file_count, succeeded, failed, skipped, duration_ms, directories_created, undone
		FROM operations WHERE id = ?
	`, id)
	entry, err := s.scanEntry(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadFiles(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns entries newest-first without per-file records; use Get for
// the full detail of one entry.
func (s *SQLiteStore) List(limit int) ([]models.OperationHistoryEntry, error) {
	query := `
		SELECT id, timestamp, operation_type, file_count, succeeded, failed, skipped, duration_ms, directories_created, undone
		FROM operations ORDER BY timestamp DESC, id
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.OperationHistoryEntry
	for rows.Next() {
		var entry models.OperationHistoryEntry
		var ts int64
		var opType string
		var dirsJSON sql.NullString
		var undone int
		if err := rows.Scan(
			&entry.ID, &ts, &opType, &entry.FileCount,
			&entry.Summary.Succeeded, &entry.Summary.Failed, &entry.Summary.Skipped,
			&entry.DurationMS, &dirsJSON, &undone,
		); err != nil {
			return nil, err
		}
		entry.Timestamp = time.UnixMilli(ts).UTC()
		entry.OperationType = models.OperationType(opType)
		entry.Undone = undone == 1
		if dirsJSON.Valid && dirsJSON.String != "" && dirsJSON.String != "null" {
			if err := json.Unmarshal([]byte(dirsJSON.String), &entry.DirectoriesCreated); err != nil {
				return nil, fmt.Errorf("corrupt directories column for %s: %w", entry.ID, err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Count returns the number of retained entries.
func (s *SQLiteStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM operations").Scan(&n)
	return n, err
}

// MarkUndone flips the undone flag exactly once.
func (s *SQLiteStore) MarkUndone(id string) error {
	var undone int
	err := s.db.QueryRow("SELECT undone FROM operations WHERE id = ?", id).Scan(&undone)
	if err == sql.ErrNoRows {
		return ErrEntryNotFound
	}
	if err != nil {
		return err
	}
	if undone == 1 {
		return ErrAlreadyUndone
	}
	_, err = s.db.Exec("UPDATE operations SET undone = 1 WHERE id = ?", id)
	return err
}

// Clear removes all entries.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec("DELETE FROM operation_files"); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM operations")
	return err
}
