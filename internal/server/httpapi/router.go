// Package httpapi exposes the sync services over HTTP with gin.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/kidsbank/internal/logging"
	"github.com/dmitrijs2005/kidsbank/internal/server/auth"
	"github.com/dmitrijs2005/kidsbank/internal/server/metrics"
	"github.com/dmitrijs2005/kidsbank/internal/server/models"
	"github.com/dmitrijs2005/kidsbank/internal/server/services"
	"github.com/dmitrijs2005/kidsbank/internal/server/telemetry"
	"github.com/dmitrijs2005/kidsbank/internal/wire"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type AccountService interface {
	Create(ctx context.Context, name, birthday, password string) (*models.Account, error)
	List(ctx context.Context, cred auth.Credential) ([]wire.Account, error)
	Authenticate(ctx context.Context, accountID, password string, existing auth.Credential) (string, error)
}

type ClientService interface {
	Register(ctx context.Context, id string) error
}

type SyncService interface {
	Pull(ctx context.Context, accountID string, since int64, cred auth.Credential) ([]*models.Change, error)
	Push(ctx context.Context, accountID string, candidates []*models.Change, cred auth.Credential) (*services.PushResult, error)
}

type ExportService interface {
	Export(ctx context.Context, accountID string, cred auth.Credential) (*services.ExportResult, error)
}

type TokenParser interface {
	Parse(token string) (auth.Credential, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler bundles the services behind the routes.
type Handler struct {
	accounts AccountService
	clients  ClientService
	sync     SyncService
	exports  ExportService
	tokens   TokenParser
	db       Pinger
	metrics  *metrics.Metrics
	log      logging.Logger
}

func NewHandler(as AccountService, cs ClientService, ss SyncService, es ExportService,
	tokens TokenParser, db Pinger, mx *metrics.Metrics, log logging.Logger) *Handler {
	return &Handler{
		accounts: as,
		clients:  cs,
		sync:     ss,
		exports:  es,
		tokens:   tokens,
		db:       db,
		metrics:  mx,
		log:      log.With("module", "http"),
	}
}

// NewRouter builds the gin engine. Tracing middleware is attached only when
// tracing is on, so spans are not created against a no-op provider.
func NewRouter(h *Handler, tracing bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if tracing {
		r.Use(otelgin.Middleware(telemetry.ServiceName))
	}
	r.Use(h.observe(), h.credential())

	r.GET("/healthz", h.healthz)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	r.POST("/clients", h.registerClient)

	accounts := r.Group("/accounts")
	{
		accounts.GET("", h.listAccounts)
		accounts.POST("", h.createAccount)
		accounts.POST("/:id/authToken", h.authToken)
		accounts.GET("/:id/changes", h.pullChanges)
		accounts.POST("/:id/changes", h.pushChanges)
		accounts.POST("/:id/exports", h.export)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, wire.ErrorResponse{Error: "route not found"})
	})

	return r
}
