package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/audit/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/audit/ports"
	"github.com/Apurer/go-gin-meal-orders/internal/platform/auth"
	apierrors "github.com/Apurer/go-gin-meal-orders/internal/shared/errors"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

// Listing bounds for GET /api/audit.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// AuditAPI exposes the audit trail to administrators.
type AuditAPI struct {
	reader ports.Reader
}

func NewAuditAPI(reader ports.Reader) *AuditAPI {
	return &AuditAPI{reader: reader}
}

// Register mounts the audit routes on r, which must already authenticate.
func (api *AuditAPI) Register(r gin.IRouter) {
	r.GET("/audit", auth.RequireRoles(identity.RoleAdministrator), api.ListRecords)
}

// Get /api/audit
func (api *AuditAPI) ListRecords(c *gin.Context) {
	var action, subject *string
	var limit *int
	query := c.Request.URL.Query()
	for name, dest := range map[string]any{"action": &action, "subject": &subject, "limit": &limit} {
		if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
			apierrors.DefaultResponder.BadRequest(c, err.Error())
			return
		}
	}
	filter := ports.Filter{Limit: DefaultLimit}
	if action != nil {
		filter.Action = strings.ToUpper(strings.TrimSpace(*action))
	}
	if subject != nil {
		filter.Subject = strings.TrimSpace(*subject)
	}
	if limit != nil && *limit > 0 {
		filter.Limit = min(*limit, MaxLimit)
	}
	records, err := api.reader.List(c.Request.Context(), filter)
	if err != nil {
		apierrors.DefaultResponder.InternalError(c, "failed to read audit trail")
		return
	}
	if records == nil {
		records = []domain.Record{}
	}
	c.JSON(http.StatusOK, records)
}
