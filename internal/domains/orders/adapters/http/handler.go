package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/adapters/http/mapper"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-meal-orders/internal/platform/auth"
	apierrors "github.com/Apurer/go-gin-meal-orders/internal/shared/errors"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

// HeaderIdempotencyKey makes order placement retries reuse one workflow run.
const HeaderIdempotencyKey = "Idempotency-Key"

// OrderAPI wires HTTP transport with the order lifecycle service and workflows.
type OrderAPI struct {
	service   ports.Service
	workflows ports.WorkflowOrchestrator
	responder *apierrors.ChainedResponder
	location  *time.Location
}

// NewOrderAPI creates an OrderAPI. workflows may be nil, in which case orders
// are placed through the service directly.
func NewOrderAPI(service ports.Service, workflows ports.WorkflowOrchestrator, location *time.Location) *OrderAPI {
	if location == nil {
		location = time.Local
	}
	return &OrderAPI{service: service, workflows: workflows, responder: NewResponder(), location: location}
}

// Register mounts the order routes on r, which must already authenticate.
func (api *OrderAPI) Register(r gin.IRouter) {
	orders := r.Group("/orders")
	orders.POST("", auth.RequireRoles(identity.RoleEmployee), api.CreateOrder)
	orders.GET("", api.ListOrders)
	orders.GET("/pending-approvals", auth.RequireRoles(identity.RoleAdministrator), api.PendingApprovals)
	orders.GET("/:id", api.GetOrder)
	orders.PATCH("/:id/status", auth.RequireRoles(identity.RoleKitchen, identity.RoleDelivery, identity.RoleAdministrator), api.UpdateStatus)
	orders.POST("/:id/request-rejection", auth.RequireRoles(identity.RoleKitchen), api.RequestRejection)
	orders.POST("/:id/request-edit", auth.RequireRoles(identity.RoleKitchen), api.RequestEdit)
	orders.POST("/:id/approve-reject", auth.RequireRoles(identity.RoleAdministrator), api.DecideApproval)
}

// CreateOrderRequest is the body of POST /api/orders.
type CreateOrderRequest struct {
	ShiftID   int64   `json:"shiftId" binding:"required,gt=0"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
	OrderDate *string `json:"orderDate"`
}

// UpdateStatusRequest is the body of PATCH /api/orders/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=WAITING IN_PROGRESS READY ON_DELIVERY COMPLETE REJECTED AWAITING_APPROVAL"`
}

// RejectionRequest is the body of POST /api/orders/:id/request-rejection.
type RejectionRequest struct {
	Note string `json:"note" binding:"required,min=10"`
}

// EditRequest is the body of POST /api/orders/:id/request-edit.
type EditRequest struct {
	NewQuantity int    `json:"newQuantity" binding:"required,min=1"`
	Note        string `json:"note" binding:"required,min=10"`
}

// DecisionRequest is the body of POST /api/orders/:id/approve-reject.
type DecisionRequest struct {
	Decision string  `json:"decision" binding:"required,oneof=APPROVED REJECTED"`
	Note     *string `json:"note" binding:"omitempty,max=500"`
}

// listOrdersParams are the query parameters of GET /api/orders.
type listOrdersParams struct {
	Status           *string
	DepartmentID     *int64
	ShiftID          *int64
	From             *openapi_types.Date
	To               *openapi_types.Date
	RequiresApproval *bool
	Page             *int
	Limit            *int
}

// Post /api/orders
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	actor, ok := api.actor(c)
	if !ok {
		return
	}
	var payload CreateOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.Respond(c, apierrors.BindingProblem(err))
		return
	}
	input := types.CreateOrderInput{
		ShiftID:        payload.ShiftID,
		Quantity:       payload.Quantity,
		IdempotencyKey: strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey)),
	}
	if payload.OrderDate != nil && strings.TrimSpace(*payload.OrderDate) != "" {
		date, err := api.parseDate(*payload.OrderDate)
		if err != nil {
			api.responder.ValidationFailed(c, map[string]string{"orderDate": "must be YYYY-MM-DD or RFC 3339"})
			return
		}
		input.OrderDate = &date
	}
	created, err := api.placeOrder(c.Request.Context(), actor, input)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapper.FromProjection(created))
}

func (api *OrderAPI) placeOrder(ctx context.Context, actor identity.Actor, input types.CreateOrderInput) (*types.OrderProjection, error) {
	if api.workflows != nil {
		return api.workflows.PlaceOrder(ctx, actor, input)
	}
	return api.service.CreateOrder(ctx, actor, input)
}

// Get /api/orders
func (api *OrderAPI) ListOrders(c *gin.Context) {
	actor, ok := api.actor(c)
	if !ok {
		return
	}
	params, err := bindListParams(c)
	if err != nil {
		api.responder.Respond(c, apierrors.ErrValidation.WithDetail(err.Error()))
		return
	}
	input := types.ListOrdersInput{
		DepartmentID:     params.DepartmentID,
		ShiftID:          params.ShiftID,
		RequiresApproval: params.RequiresApproval,
		From:             api.localDate(params.From),
		To:               api.localDate(params.To),
	}
	if params.Status != nil {
		status, err := domain.ParseStatus(*params.Status)
		if err != nil {
			api.responder.ValidationFailed(c, map[string]string{"status": err.Error()})
			return
		}
		input.Status = &status
	}
	if params.Page != nil {
		input.Page = *params.Page
	}
	if params.Limit != nil {
		input.Limit = *params.Limit
	}
	page, err := api.service.ListOrders(c.Request.Context(), actor, input)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromPage(page))
}

func bindListParams(c *gin.Context) (listOrdersParams, error) {
	var params listOrdersParams
	query := c.Request.URL.Query()
	bindings := []struct {
		name string
		dest any
	}{
		{"status", &params.Status},
		{"departmentId", &params.DepartmentID},
		{"shiftId", &params.ShiftID},
		{"from", &params.From},
		{"to", &params.To},
		{"requiresApproval", &params.RequiresApproval},
		{"page", &params.Page},
		{"limit", &params.Limit},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			return listOrdersParams{}, err
		}
	}
	return params, nil
}

// Get /api/orders/pending-approvals
func (api *OrderAPI) PendingApprovals(c *gin.Context) {
	actor, ok := api.actor(c)
	if !ok {
		return
	}
	list, err := api.service.PendingApprovals(c.Request.Context(), actor)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromProjectionList(list))
}

// Get /api/orders/:id
func (api *OrderAPI) GetOrder(c *gin.Context) {
	actor, ok := api.actor(c)
	if !ok {
		return
	}
	id, ok := api.parseIDParam(c)
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), actor, id)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromProjection(order))
}

// Patch /api/orders/:id/status
func (api *OrderAPI) UpdateStatus(c *gin.Context) {
	actor, ok := api.actor(c)
	if !ok {
		return
	}
	id, ok := api.parseIDParam(c)
	if !ok {
		return
	}
	var payload UpdateStatusRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.Respond(c, apierrors.BindingProblem(err))
		return
	}
	updated, err := api.service.UpdateStatus(c.Request.Context(), actor, types.UpdateStatusInput{OrderID: id, Status: domain.Status(payload.Status)})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromProjection(updated))
}

// Post /api/orders/:id/request-rejection
func (api *OrderAPI) RequestRejection(c *gin.Context) {
	actor, ok := api.actor(c)
	if !ok {
		return
	}
	id, ok := api.parseIDParam(c)
	if !ok {
		return
	}
	var payload RejectionRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.Respond(c, apierrors.BindingProblem(err))
		return
	}
	updated, err := api.service.RequestRejection(c.Request.Context(), actor, types.RejectionInput{OrderID: id, Note: payload.Note})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromProjection(updated))
}

// Post /api/orders/:id/request-edit
func (api *OrderAPI) RequestEdit(c *gin.Context) {
	actor, ok := api.actor(c)
	if !ok {
		return
	}
	id, ok := api.parseIDParam(c)
	if !ok {
		return
	}
	var payload EditRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.Respond(c, apierrors.BindingProblem(err))
		return
	}
	updated, err := api.service.RequestEdit(c.Request.Context(), actor, types.EditInput{OrderID: id, NewQuantity: payload.NewQuantity, Note: payload.Note})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromProjection(updated))
}

// Post /api/orders/:id/approve-reject
func (api *OrderAPI) DecideApproval(c *gin.Context) {
	actor, ok := api.actor(c)
	if !ok {
		return
	}
	id, ok := api.parseIDParam(c)
	if !ok {
		return
	}
	var payload DecisionRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.Respond(c, apierrors.BindingProblem(err))
		return
	}
	input := types.DecisionInput{OrderID: id, Decision: domain.ApprovalStatus(payload.Decision), Note: payload.Note}
	updated, err := api.service.DecideApproval(c.Request.Context(), actor, input)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromProjection(updated))
}

func (api *OrderAPI) actor(c *gin.Context) (identity.Actor, bool) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		api.responder.Unauthorized(c, "missing credentials")
		return identity.Actor{}, false
	}
	return actor, true
}

func (api *OrderAPI) parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		api.responder.BadRequest(c, "order id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (api *OrderAPI) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation(time.DateOnly, raw, api.location); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func (api *OrderAPI) localDate(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, api.location)
	return &t
}
