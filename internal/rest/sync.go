package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dfryer1193/alttext/api"
	"github.com/dfryer1193/alttext/internal/middleware"
	"github.com/dfryer1193/alttext/media/domain"
	"github.com/gin-gonic/gin"
)

const (
	msgAltSet        = "ALT set from filename."
	msgAltUnresolved = "Could not derive ALT from filename."
)

// SyncImage overwrites one image's alt text with the text derived from its filename
func (a *Api) SyncImage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, api.Error{Error: "invalid image id"})
		return
	}

	outcome, err := a.hooks.OnSingleAction(c.Request.Context(), id, middleware.Actor(c))
	if err != nil {
		writeSyncError(c, err)
		return
	}

	message := msgAltUnresolved
	if outcome.Updated > 0 {
		message = msgAltSet
	}
	c.JSON(http.StatusOK, api.SyncResponse{
		Message: message,
		Outcome: api.FromOutcome(outcome),
	})
}

func (a *Api) SyncBulk(c *gin.Context) {
	req := &api.BulkRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: err.Error()})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, api.Error{Error: "ids must not be empty"})
		return
	}

	outcome, err := a.hooks.OnBulkAction(c.Request.Context(), req.IDs, middleware.Actor(c))
	if err != nil {
		writeSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.SyncResponse{
		Message: fmt.Sprintf("ALT updated for %d item(s).", outcome.Updated),
		Outcome: api.FromOutcome(outcome),
	})
}

// Backfill runs one resumable batch; an empty body starts from the beginning with the default batch size
func (a *Api) Backfill(c *gin.Context) {
	req := &api.BackfillRequest{}
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, api.Error{Error: err.Error()})
		return
	}
	if req.Cursor < 0 || req.Limit < 0 {
		c.JSON(http.StatusBadRequest, api.Error{Error: "cursor and limit must not be negative"})
		return
	}

	result, err := a.hooks.OnBackfill(c.Request.Context(), middleware.Actor(c), req.Cursor, req.Limit)
	if err != nil {
		writeSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.BackfillResponse{
		Message:    fmt.Sprintf("Backfilled %d image(s).", result.Outcome.Updated),
		Outcome:    api.FromOutcome(result.Outcome),
		NextCursor: result.NextCursor,
		Done:       result.Done,
	})
}

func writeSyncError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, api.Error{Error: "you cannot edit this image"})
	case errors.Is(err, domain.ErrImageNotFound):
		c.JSON(http.StatusNotFound, api.Error{Error: "image not found"})
	case errors.Is(err, domain.ErrNotAnImage):
		c.JSON(http.StatusUnprocessableEntity, api.Error{Error: "attachment is not an image"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, api.Error{Error: "failed to update alt text"})
	}
}
