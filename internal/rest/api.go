package rest

import (
	"context"
	"net/http"

	"github.com/dfryer1193/alttext/internal/auth"
	"github.com/dfryer1193/alttext/internal/middleware"
	"github.com/dfryer1193/alttext/media/application"
	"github.com/gin-gonic/gin"
)

// Dependencies are the services the HTTP API dispatches to
type Dependencies struct {
	Library         *application.LibraryService
	Hooks           *application.Hooks
	Authorizer      auth.RoleAuthorizer
	Tokens          middleware.ActorParser
	BackfillLimiter *middleware.IPRateLimiter
	OnRateLimited   func()
	Metrics         http.Handler
	Ping            func(ctx context.Context) error
}

type Api struct {
	library *application.LibraryService
	hooks   *application.Hooks
	ping    func(ctx context.Context) error
}

func NewApi(router *gin.Engine, deps Dependencies) *Api {
	a := &Api{
		library: deps.Library,
		hooks:   deps.Hooks,
		ping:    deps.Ping,
	}

	router.GET("/healthz", a.Health)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	altV1 := router.Group("alt/v1")
	{
		altV1.GET("/preview", a.Preview)
	}

	authed := altV1.Group("", middleware.Authenticate(deps.Tokens))
	{
		authed.POST("/images", middleware.RequireRole(deps.Authorizer.CanUpload), a.RegisterImage)
		authed.POST("/images/:id/alt", a.SyncImage)
		authed.POST("/bulk", a.SyncBulk)
	}

	admin := authed.Group("", middleware.RequireRole(deps.Authorizer.IsAdmin))
	{
		admin.GET("/stats", a.GetStats)
		admin.GET("/images", a.ListImages)

		backfill := []gin.HandlerFunc{a.Backfill}
		if deps.BackfillLimiter != nil {
			backfill = append([]gin.HandlerFunc{middleware.RateLimit(deps.BackfillLimiter, deps.OnRateLimited)}, backfill...)
		}
		admin.POST("/backfill", backfill...)
	}

	return a
}

func (a *Api) Health(c *gin.Context) {
	if a.ping != nil {
		if err := a.ping(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
