package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dfryer1193/alttext/api"
	"github.com/dfryer1193/alttext/internal/middleware"
	"github.com/dfryer1193/alttext/media/application"
	"github.com/dfryer1193/alttext/media/domain"
	"github.com/gin-gonic/gin"
)

// Preview shows the alt text a filename would produce, without touching the store
func (a *Api) Preview(c *gin.Context) {
	filename := c.Query("filename")
	if filename == "" {
		c.JSON(http.StatusBadRequest, api.Error{Error: "filename is required"})
		return
	}

	c.JSON(http.StatusOK, api.Preview{
		Filename: filename,
		BaseName: application.BaseName(filename),
		AltText:  application.AltTextForFilename(filename),
	})
}

func (a *Api) GetStats(c *gin.Context) {
	stats, err := a.library.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, api.Error{Error: "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (a *Api) ListImages(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, api.Error{Error: "page must be a positive integer"})
			return
		}
		page = n
	}

	result, err := a.library.ListImages(c.Request.Context(), page)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, api.Error{Error: "failed to list images"})
		return
	}

	c.JSON(http.StatusOK, api.FromImagePage(result))
}

func (a *Api) RegisterImage(c *gin.Context) {
	proto := &api.ImageProto{}
	if err := c.ShouldBindJSON(proto); err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: err.Error()})
		return
	}

	img := proto.ToDomain(middleware.Actor(c).ID)
	outcome, err := a.library.Register(c.Request.Context(), img)
	if errors.Is(err, domain.ErrInvalidImage) {
		c.JSON(http.StatusBadRequest, api.Error{Error: err.Error()})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, api.Error{Error: "failed to register image"})
		return
	}

	view := api.FromImage(img)
	resp := api.SyncResponse{
		Outcome: api.FromOutcome(outcome),
		Image:   &view,
	}
	if outcome.Updated > 0 {
		resp.Message = msgAltSet
	}
	c.JSON(http.StatusCreated, resp)
}
