package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	audithttp "github.com/Apurer/go-gin-meal-orders/internal/domains/audit/adapters/http"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/notifications/adapters/websocket"
	ordershttp "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/adapters/http"
	"github.com/Apurer/go-gin-meal-orders/internal/platform/auth"
)

// RouterDeps are the transports mounted by NewRouter.
type RouterDeps struct {
	ServiceName   string
	Verifier      *auth.Verifier
	Orders        *ordershttp.OrderAPI
	Audit         *audithttp.AuditAPI
	Notifications *websocket.Handler
	CORSOrigins   []string
}

// NewRouter builds the HTTP surface: /healthz, the /notifications websocket
// and the authenticated /api group.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if deps.ServiceName != "" {
		router.Use(otelgin.Middleware(deps.ServiceName))
	}
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Notifications != nil {
		router.GET("/notifications", deps.Notifications.Serve)
	}

	api := router.Group("/api", auth.Middleware(deps.Verifier))
	if deps.Orders != nil {
		deps.Orders.Register(api)
	}
	if deps.Audit != nil {
		deps.Audit.Register(api)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Authorization",
			auth.HeaderAuthToken, ordershttp.HeaderIdempotencyKey, websocket.HeaderDepartmentID,
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
