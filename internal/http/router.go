package http

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/mockskills/collabzone/internal/auth"
	"github.com/mockskills/collabzone/internal/cache"
	"github.com/mockskills/collabzone/internal/config"
	"github.com/mockskills/collabzone/internal/domain/registration"
	"github.com/mockskills/collabzone/internal/http/handlers"
	"github.com/mockskills/collabzone/internal/http/middlewares"
	"github.com/mockskills/collabzone/internal/observability"
	"github.com/mockskills/collabzone/internal/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "collabzone-api"

type Deps struct {
	Registrations handlers.RegistrationService
	Repairer      handlers.FormattedIDRepairer
	// Checks are pinged by /readyz.
	Checks   map[string]handlers.PingFunc
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Tokens   middlewares.TokenVerifier
	Cache    *cache.Cache[int64, registration.Registration]
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) (*gin.Engine, error) {
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validation.RegisterTags(v); err != nil {
			return nil, fmt.Errorf("register validation tags: %w", err)
		}
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(!cfg.IsDev()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(middlewares.DefaultMaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	h := handlers.NewHealthHandler(deps.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	docs, err := handlers.NewDocsHandler("/docs/openapi.yaml")
	if err != nil {
		return nil, fmt.Errorf("docs page: %w", err)
	}
	r.GET("/docs", docs.UI)
	r.GET("/docs/openapi.yaml", docs.Spec)

	limiter := middlewares.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)

	regs := handlers.NewRegistrationsHandler(deps.Registrations, deps.Cache)
	api := r.Group("/api/collabzone")
	{
		api.GET("/registrations", regs.List)
		api.GET("/registration/:id", regs.GetByID)
		api.POST("/registration", limiter.RateLimiterMiddleware(middlewares.KeyByIP), regs.Create)
	}

	if deps.Tokens != nil && deps.Repairer != nil {
		authMw := middlewares.NewAuthMiddleware(deps.Tokens)
		admin := handlers.NewAdminHandler(deps.Repairer, cfg.RepairBatchSize)

		adminGroup := r.Group("/admin", authMw.RequireAuth(), authMw.RequireRole(auth.RoleAdmin))
		adminGroup.POST("/registrations/repair", admin.RepairFormattedIDs)
	}

	return r, nil
}
