package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrForbidden     = errors.New("forbidden")
	ErrNotAnImage    = errors.New("attachment is not an image")
	ErrInvalidImage  = errors.New("invalid image")
)

// Image represents an uploaded media attachment and its alt text.
// Filename is the base filename as uploaded, without path or query string.
type Image struct {
	ID          int64
	Filename    string
	AltText     string
	MimeType    string
	Title       string
	Caption     string
	Description string
	AuthorID    string
	UpdatedAt   time.Time
	CreatedAt   time.Time
}

// IsImage reports whether the attachment carries an image MIME type.
func (i *Image) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(i.MimeType), "image/")
}

// altWhitespace is the ASCII set the store trims when matching missing alt text
const altWhitespace = " \t\n\v\f\r"

// HasAltText treats an absent, empty or whitespace-only alt text as missing.
func (i *Image) HasAltText() bool {
	return strings.Trim(i.AltText, altWhitespace) != ""
}

type ImageRepository interface {
	// CreateImage inserts a new record and returns its ID
	CreateImage(ctx context.Context, img *Image) (int64, error)

	// GetImage returns ErrImageNotFound when no record has the given ID
	GetImage(ctx context.Context, id int64) (*Image, error)

	// ListImages returns image attachments ordered by ID, newest first
	ListImages(ctx context.Context, limit int, offset int) ([]*Image, error)

	// FindMissingAltText returns image attachments with no alt text and an ID greater
	// than afterID, in ascending ID order
	FindMissingAltText(ctx context.Context, afterID int64, limit int) ([]*Image, error)

	CountImages(ctx context.Context) (int, error)
	CountImagesWithAlt(ctx context.Context) (int, error)
	CountByMimeType(ctx context.Context) (map[string]int, error)

	WriteAltText(ctx context.Context, id int64, text string) error

	// WriteAltTextIfMissing writes text only while the stored alt text is still missing.
	// It reports false when the record gained alt text in the meantime.
	WriteAltTextIfMissing(ctx context.Context, id int64, text string) (bool, error)
}

// Stats summarises alt text coverage across the media library.
type Stats struct {
	TotalImages int            `json:"total_images"`
	WithAlt     int            `json:"with_alt"`
	WithoutAlt  int            `json:"without_alt"`
	ByMimeType  map[string]int `json:"by_mime_type"`
}

// ImagePage is one page of the media library listing.
type ImagePage struct {
	Images     []*Image
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}
