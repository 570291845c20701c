package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(`CREATE TABLE writes (id INTEGER PRIMARY KEY, label TEXT NOT NULL)`); err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}
	return db
}

func insert(ctx context.Context, db *sql.DB, label string) error {
	_, err := GetExecutor(ctx, db).ExecContext(ctx, "INSERT INTO writes (label) VALUES (?)", label)
	return err
}

func countWrites(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM writes").Scan(&n); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}

var errAbort = errors.New("abort")

func TestRunInTransaction(t *testing.T) {
	tests := []struct {
		name      string
		fn        func(db *sql.DB) func(ctx context.Context) error
		wantErr   error
		wantCount int
	}{
		{
			name: "commits on success",
			fn: func(db *sql.DB) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					if _, ok := GetTx(ctx); !ok {
						return errors.New("no transaction in context")
					}
					return insert(ctx, db, "a")
				}
			},
			wantCount: 1,
		},
		{
			name: "rolls back on error",
			fn: func(db *sql.DB) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					if err := insert(ctx, db, "a"); err != nil {
						return err
					}
					return errAbort
				}
			},
			wantErr:   errAbort,
			wantCount: 0,
		},
		{
			name: "nested call joins the outer transaction",
			fn: func(db *sql.DB) func(ctx context.Context) error {
				return func(outer context.Context) error {
					if err := insert(outer, db, "outer"); err != nil {
						return err
					}
					return RunInTransaction(outer, db, func(inner context.Context) error {
						outerTx, _ := GetTx(outer)
						innerTx, _ := GetTx(inner)
						if outerTx != innerTx {
							return errors.New("nested call started a new transaction")
						}
						return insert(inner, db, "inner")
					})
				}
			},
			wantCount: 2,
		},
		{
			name: "nested error rolls back everything",
			fn: func(db *sql.DB) func(ctx context.Context) error {
				return func(outer context.Context) error {
					if err := insert(outer, db, "outer"); err != nil {
						return err
					}
					return RunInTransaction(outer, db, func(inner context.Context) error {
						if err := insert(inner, db, "inner"); err != nil {
							return err
						}
						return errAbort
					})
				}
			},
			wantErr:   errAbort,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)

			err := RunInTransaction(context.Background(), db, tt.fn(db))
			if tt.wantErr == nil && err != nil {
				t.Fatalf("RunInTransaction() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("RunInTransaction() error = %v, want %v", err, tt.wantErr)
			}
			if got := countWrites(t, db); got != tt.wantCount {
				t.Errorf("rows = %d, want %d", got, tt.wantCount)
			}
		})
	}
}

func TestRunInTransaction_RollsBackOnPanic(t *testing.T) {
	db := setupTestDB(t)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = RunInTransaction(context.Background(), db, func(ctx context.Context) error {
			if err := insert(ctx, db, "a"); err != nil {
				return err
			}
			panic("boom")
		})
	}()

	if got := countWrites(t, db); got != 0 {
		t.Errorf("rows = %d, want 0 after panic", got)
	}
}

func TestRunInTransaction_CancelledContext(t *testing.T) {
	db := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := RunInTransaction(ctx, db, func(ctx context.Context) error {
		called = true
		return nil
	})
	if err == nil {
		t.Error("expected error beginning a transaction on a cancelled context")
	}
	if called {
		t.Error("fn should not run without a transaction")
	}
}

func TestGetExecutor(t *testing.T) {
	db := setupTestDB(t)

	if exec := GetExecutor(context.Background(), db); exec != Executor(db) {
		t.Error("expected *sql.DB without a transaction")
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	defer tx.Rollback()

	if exec := GetExecutor(WithTx(context.Background(), tx), db); exec != Executor(tx) {
		t.Error("expected the context transaction")
	}
}

func TestSQLTransactor(t *testing.T) {
	db := setupTestDB(t)
	tx := NewTransactor(db)
	ctx := context.Background()

	if err := tx.RunInTransaction(ctx, func(ctx context.Context) error { return insert(ctx, db, "kept") }); err != nil {
		t.Fatalf("RunInTransaction() error = %v", err)
	}

	err := tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := insert(ctx, db, "dropped"); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("RunInTransaction() error = %v, want errAbort", err)
	}

	if got := countWrites(t, db); got != 1 {
		t.Errorf("rows = %d, want 1", got)
	}
}
