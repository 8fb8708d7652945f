package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/student-records-api/internal/middleware"
	appErrors "github.com/noah-isme/student-records-api/pkg/errors"
	"github.com/noah-isme/student-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/student-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/student-records-api/pkg/middleware/requestid"
	"github.com/noah-isme/student-records-api/pkg/response"
	"github.com/noah-isme/student-records-api/web"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Students        *StudentHandler
	Health          *HealthHandler
	Metrics         *MetricsHandler
	RequestObserver middleware.RequestObserver
	Logger          *zap.Logger
	APIPrefix       string
	AllowedOrigins  []string
	EnableDocs      bool
}

// NewRouter builds the gin engine with middleware and all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.APIPrefix == "" {
		deps.APIPrefix = "/api"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(middleware.Metrics(deps.RequestObserver))
	r.Use(corsmiddleware.New(deps.AllowedOrigins))

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	if deps.Health != nil {
		r.GET("/health", deps.Health.Liveness)
		r.GET("/ready", deps.Health.Readiness)
	}
	if deps.Metrics != nil {
		r.GET("/metrics", deps.Metrics.Prometheus)
	}
	if deps.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
	})

	if deps.Students != nil {
		students := r.Group(deps.APIPrefix + "/students")
		students.GET("", deps.Students.List)
		students.POST("", deps.Students.Create)
		students.GET("/:id", deps.Students.Get)
		students.PUT("/:id", deps.Students.Update)
		students.DELETE("/:id", deps.Students.Delete)

		// Exports live outside /students/:id so every student_id stays addressable.
		r.GET(deps.APIPrefix+"/exports/students", deps.Students.Export)
	}

	return r
}
