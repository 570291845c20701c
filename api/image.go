package api

import (
	"time"

	"github.com/dfryer1193/alttext/media/domain"
)

type Image struct {
	ID          int64  `json:"id"`
	Filename    string `json:"filename"`
	AltText     string `json:"alt_text"`
	MimeType    string `json:"mime_type"`
	Title       string `json:"title,omitempty"`
	Caption     string `json:"caption,omitempty"`
	Description string `json:"description,omitempty"`
	AuthorID    string `json:"author_id,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// ImageProto is the body of an upload registration
type ImageProto struct {
	Filename    string `json:"filename" binding:"required"`
	MimeType    string `json:"mime_type" binding:"required"`
	AltText     string `json:"alt_text"`
	Title       string `json:"title"`
	Caption     string `json:"caption"`
	Description string `json:"description"`
}

type ImagePage struct {
	Images     []Image `json:"images"`
	Page       int     `json:"page"`
	PerPage    int     `json:"per_page"`
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
}

type Outcome struct {
	Attempted int            `json:"attempted"`
	Updated   int            `json:"updated"`
	Skipped   map[string]int `json:"skipped"`
}

type SyncResponse struct {
	Message string  `json:"message"`
	Outcome Outcome `json:"outcome"`
	Image   *Image  `json:"image,omitempty"`
}

type BulkRequest struct {
	IDs []int64 `json:"ids" binding:"required"`
}

type BackfillRequest struct {
	Cursor int64 `json:"cursor"`
	Limit  int   `json:"limit"`
}

type BackfillResponse struct {
	Message    string  `json:"message"`
	Outcome    Outcome `json:"outcome"`
	NextCursor int64   `json:"next_cursor"`
	Done       bool    `json:"done"`
}

type Preview struct {
	Filename string `json:"filename"`
	BaseName string `json:"base_name"`
	AltText  string `json:"alt_text"`
}

type Error struct {
	Error string `json:"error"`
}

func FromImage(img *domain.Image) Image {
	out := Image{
		ID:          img.ID,
		Filename:    img.Filename,
		AltText:     img.AltText,
		MimeType:    img.MimeType,
		Title:       img.Title,
		Caption:     img.Caption,
		Description: img.Description,
		AuthorID:    img.AuthorID,
		CreatedAt:   img.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !img.UpdatedAt.IsZero() {
		out.UpdatedAt = img.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func FromImagePage(page *domain.ImagePage) ImagePage {
	images := make([]Image, 0, len(page.Images))
	for _, img := range page.Images {
		images = append(images, FromImage(img))
	}
	return ImagePage{
		Images:     images,
		Page:       page.Page,
		PerPage:    page.PerPage,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	}
}

func FromOutcome(o domain.SyncOutcome) Outcome {
	skipped := make(map[string]int, len(o.Skipped))
	for reason, n := range o.Skipped {
		skipped[string(reason)] = n
	}
	return Outcome{
		Attempted: o.Attempted,
		Updated:   o.Updated,
		Skipped:   skipped,
	}
}

// ToDomain builds the record to register; the author is the uploading actor
func (p ImageProto) ToDomain(authorID string) *domain.Image {
	return &domain.Image{
		Filename:    p.Filename,
		MimeType:    p.MimeType,
		AltText:     p.AltText,
		Title:       p.Title,
		Caption:     p.Caption,
		Description: p.Description,
		AuthorID:    authorID,
	}
}
