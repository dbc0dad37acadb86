package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const documentName = "gallery"

// SQLiteDatabase keeps the document in a single row of the documents table
type SQLiteDatabase struct {
	db *sql.DB
}

func NewSQLiteDatabase(connectionString string) (*SQLiteDatabase, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// an in-memory database only lives as long as its connection
	db.SetMaxOpenConns(1)

	database := &SQLiteDatabase{db: db}
	if err := database.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return database, nil
}

func (s *SQLiteDatabase) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		body BLOB NOT NULL
	)`)
	return err
}

func (s *SQLiteDatabase) Load(ctx context.Context) ([]byte, error) {
	row := s.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE name = ?", documentName)
	var document []byte
	if err := row.Scan(&document); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return document, nil
}

func (s *SQLiteDatabase) Save(ctx context.Context, document []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (name, body) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body`,
		documentName, document)
	return err
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
