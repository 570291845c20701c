package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/alttext/media/domain"
	"github.com/dfryer1193/alttext/shared/db"
)

var _ domain.ImageRepository = (*SQLiteImageRepository)(nil)

// SQLiteImageRepository implements domain.ImageRepository using SQL database (SQLite).
// Every method joins a transaction carried by the context when there is one.
type SQLiteImageRepository struct {
	db *sql.DB
}

// NewImageRepository creates a new SQLiteImageRepository from a standard sql.DB
func NewImageRepository(sqlDB *sql.DB) *SQLiteImageRepository {
	return &SQLiteImageRepository{
		db: sqlDB,
	}
}

const imageColumns = `id, filename, alt_text, mime_type, title, caption, description, author_id, updated_at, created_at`

// imageFilter restricts queries to attachments with an image MIME type
const imageFilter = `mime_type LIKE 'image/%'`

// missingAltFilter matches absent, empty and whitespace-only alt text
const missingAltFilter = `(alt_text IS NULL OR TRIM(alt_text, char(32, 9, 10, 11, 12, 13)) = '')`

const insertImageQuery = `
	INSERT INTO images (filename, alt_text, mime_type, title, caption, description, author_id, updated_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// CreateImage inserts a new attachment record and returns its ID
func (r *SQLiteImageRepository) CreateImage(ctx context.Context, img *domain.Image) (int64, error) {
	if img == nil {
		return 0, fmt.Errorf("image cannot be nil")
	}

	if img.Filename == "" {
		return 0, fmt.Errorf("image filename cannot be empty")
	}

	createdAt := img.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var altText any
	if img.AltText != "" {
		altText = img.AltText
	}

	executor := db.GetExecutor(ctx, r.db)
	res, err := executor.ExecContext(ctx, insertImageQuery,
		img.Filename,
		altText,
		img.MimeType,
		img.Title,
		img.Caption,
		img.Description,
		img.AuthorID,
		nil,
		createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert image record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted image id: %w", err)
	}

	return id, nil
}

const getImageQuery = `
	SELECT ` + imageColumns + `
	FROM images
	WHERE id = ?
`

// GetImage retrieves a single attachment by ID
func (r *SQLiteImageRepository) GetImage(ctx context.Context, id int64) (*domain.Image, error) {
	executor := db.GetExecutor(ctx, r.db)

	var row imageRow
	err := row.scan(executor.QueryRowContext(ctx, getImageQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", domain.ErrImageNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return row.toDomain(), nil
}

const listImagesQuery = `
	SELECT ` + imageColumns + `
	FROM images
	WHERE ` + imageFilter + `
	ORDER BY id DESC
	LIMIT ? OFFSET ?
`

// ListImages returns image attachments, newest first
func (r *SQLiteImageRepository) ListImages(ctx context.Context, limit int, offset int) ([]*domain.Image, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	if offset < 0 {
		offset = 0
	}

	return r.queryImages(ctx, listImagesQuery, limit, offset)
}

const findMissingAltQuery = `
	SELECT ` + imageColumns + `
	FROM images
	WHERE ` + imageFilter + `
	  AND ` + missingAltFilter + `
	  AND id > ?
	ORDER BY id ASC
	LIMIT ?
`

// FindMissingAltText returns the next batch of images without alt text after the cursor
func (r *SQLiteImageRepository) FindMissingAltText(ctx context.Context, afterID int64, limit int) ([]*domain.Image, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	return r.queryImages(ctx, findMissingAltQuery, afterID, limit)
}

const countImagesQuery = `SELECT COUNT(*) FROM images WHERE ` + imageFilter

func (r *SQLiteImageRepository) CountImages(ctx context.Context) (int, error) {
	return r.count(ctx, countImagesQuery)
}

const countImagesWithAltQuery = `SELECT COUNT(*) FROM images WHERE ` + imageFilter + ` AND NOT ` + missingAltFilter

func (r *SQLiteImageRepository) CountImagesWithAlt(ctx context.Context) (int, error) {
	return r.count(ctx, countImagesWithAltQuery)
}

const countByMimeTypeQuery = `
	SELECT mime_type, COUNT(*)
	FROM images
	WHERE ` + imageFilter + `
	GROUP BY mime_type
	ORDER BY mime_type
`

// CountByMimeType returns the number of image attachments per MIME type
func (r *SQLiteImageRepository) CountByMimeType(ctx context.Context) (map[string]int, error) {
	executor := db.GetExecutor(ctx, r.db)

	rows, err := executor.QueryContext(ctx, countByMimeTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to count images by mime type: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var mime string
		var n int
		if err := rows.Scan(&mime, &n); err != nil {
			return nil, fmt.Errorf("failed to scan mime count: %w", err)
		}
		counts[mime] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mime counts: %w", err)
	}

	return counts, nil
}

const writeAltTextQuery = `
	UPDATE images
	SET alt_text = ?, updated_at = ?
	WHERE id = ?
`

const writeAltTextIfMissingQuery = `
	UPDATE images
	SET alt_text = ?, updated_at = ?
	WHERE id = ?
	  AND ` + imageFilter + `
	  AND ` + missingAltFilter

// WriteAltText replaces the alt text of a single attachment
func (r *SQLiteImageRepository) WriteAltText(ctx context.Context, id int64, text string) error {
	executor := db.GetExecutor(ctx, r.db)

	res, err := executor.ExecContext(ctx, writeAltTextQuery, text, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update alt text: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %d", domain.ErrImageNotFound, id)
	}

	return nil
}

// WriteAltTextIfMissing writes text only when the stored alt text is still missing.
// Unlike WriteAltText, zero affected rows is not an error.
func (r *SQLiteImageRepository) WriteAltTextIfMissing(ctx context.Context, id int64, text string) (bool, error) {
	executor := db.GetExecutor(ctx, r.db)

	res, err := executor.ExecContext(ctx, writeAltTextIfMissingQuery, text, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to update alt text: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

func (r *SQLiteImageRepository) count(ctx context.Context, query string) (int, error) {
	executor := db.GetExecutor(ctx, r.db)

	var n int
	if err := executor.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return n, nil
}

func (r *SQLiteImageRepository) queryImages(ctx context.Context, query string, args ...any) ([]*domain.Image, error) {
	executor := db.GetExecutor(ctx, r.db)

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []*domain.Image
	for rows.Next() {
		var row imageRow
		if err := row.scan(rows); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate images: %w", err)
	}

	return images, nil
}

// imageRow is a private struct used to scan database rows
type imageRow struct {
	ID          int64          `db:"id"`
	Filename    string         `db:"filename"`
	AltText     sql.NullString `db:"alt_text"`
	MimeType    string         `db:"mime_type"`
	Title       string         `db:"title"`
	Caption     string         `db:"caption"`
	Description string         `db:"description"`
	AuthorID    string         `db:"author_id"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
	CreatedAt   sql.NullTime   `db:"created_at"`
}

type scanner interface {
	Scan(dest ...any) error
}

func (ir *imageRow) scan(s scanner) error {
	return s.Scan(
		&ir.ID,
		&ir.Filename,
		&ir.AltText,
		&ir.MimeType,
		&ir.Title,
		&ir.Caption,
		&ir.Description,
		&ir.AuthorID,
		&ir.UpdatedAt,
		&ir.CreatedAt,
	)
}

// toDomain converts an imageRow to a domain.Image, handling nullable columns
func (ir *imageRow) toDomain() *domain.Image {
	img := &domain.Image{
		ID:          ir.ID,
		Filename:    ir.Filename,
		MimeType:    ir.MimeType,
		Title:       ir.Title,
		Caption:     ir.Caption,
		Description: ir.Description,
		AuthorID:    ir.AuthorID,
	}

	if ir.AltText.Valid {
		img.AltText = ir.AltText.String
	}
	if ir.UpdatedAt.Valid {
		img.UpdatedAt = ir.UpdatedAt.Time
	}
	if ir.CreatedAt.Valid {
		img.CreatedAt = ir.CreatedAt.Time
	}

	return img
}
