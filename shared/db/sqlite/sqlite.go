package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/dfryer1193/alttext/shared/db"
	_ "modernc.org/sqlite"
)

const (
	defaultPath = "./alttext.db"
	memoryPath  = ":memory:"
)

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
	"busy_timeout(5000)",
	"cache_size(-64000)",
}

type SQLiteConfig struct {
	Path string
}

// NewSQLiteConfig reads SQLITE_DB_PATH, falling back to ./alttext.db
func NewSQLiteConfig() *SQLiteConfig {
	path := strings.TrimSpace(os.Getenv("SQLITE_DB_PATH"))
	if path == "" {
		path = defaultPath
	}

	return &SQLiteConfig{
		Path: path,
	}
}

var _ db.Database = (*SQLiteDB)(nil)

// SQLiteDB implements the db.Database interface for SQLite and owns the schema migrations
type SQLiteDB struct {
	dbPath string
	db     *sql.DB
}

func NewSQLiteDB(cfg *SQLiteConfig) *SQLiteDB {
	return &SQLiteDB{
		dbPath: cfg.Path,
	}
}

// Connect opens the database, verifies it and brings the schema up to date
func (s *SQLiteDB) Connect() error {
	if s.db != nil {
		return fmt.Errorf("database already connected")
	}

	conn, err := sql.Open("sqlite", dsn(s.dbPath))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to an in-memory database sees its own empty schema
	if s.dbPath == memoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(context.Background(), conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = conn
	return nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying *sql.DB instance
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

// dsn builds a modernc.org/sqlite data source name carrying the connection pragmas
func dsn(path string) string {
	params := url.Values{}
	for _, p := range pragmas {
		if path == memoryPath && strings.HasPrefix(p, "journal_mode") {
			continue
		}
		params.Add("_pragma", p)
	}

	if path == memoryPath {
		return "file::memory:?" + params.Encode()
	}
	return "file:" + path + "?" + params.Encode()
}
