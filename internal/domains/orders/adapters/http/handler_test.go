package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditmemory "github.com/Apurer/go-gin-meal-orders/internal/domains/audit/adapters/memory"
	directorymemory "github.com/Apurer/go-gin-meal-orders/internal/domains/directory/adapters/memory"
	directorydomain "github.com/Apurer/go-gin-meal-orders/internal/domains/directory/domain"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/adapters/http/mapper"
	ordersmemory "github.com/Apurer/go-gin-meal-orders/internal/domains/orders/adapters/memory"
	"github.com/Apurer/go-gin-meal-orders/internal/domains/orders/application"
	"github.com/Apurer/go-gin-meal-orders/internal/platform/auth"
	apierrors "github.com/Apurer/go-gin-meal-orders/internal/shared/errors"
	"github.com/Apurer/go-gin-meal-orders/internal/shared/identity"
)

type testAPI struct {
	router *gin.Engine
	tokens map[identity.Role]string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	apierrors.UseJSONFieldNames()
	ctx := context.Background()

	dept := int64(7)
	dir := directorymemory.NewDirectory()
	require.NoError(t, dir.SaveShift(ctx, directorydomain.Shift{ID: 1, Name: "Shift 1"}))
	require.NoError(t, dir.SaveEmployee(ctx, directorydomain.Employee{ID: 100, NIK: "EMP-100", DepartmentID: &dept, Role: identity.RoleEmployee, Active: true}))

	svc := application.NewService(ordersmemory.NewRepository(), dir, auditmemory.NewStore(), application.WithLocation(time.UTC))
	verifier, err := auth.NewVerifier("http-secret")
	require.NoError(t, err)

	router := gin.New()
	api := router.Group("/api", auth.Middleware(verifier))
	NewOrderAPI(svc, nil, time.UTC).Register(api)

	tokens := map[identity.Role]string{}
	for role, claims := range map[identity.Role]auth.Claims{
		identity.RoleEmployee:      {Subject: 1, EmployeeID: 100, NIK: "EMP-100", Role: identity.RoleEmployee},
		identity.RoleKitchen:       {Subject: 2, EmployeeID: 200, NIK: "KIT-200", Role: identity.RoleKitchen},
		identity.RoleDelivery:      {Subject: 3, EmployeeID: 300, NIK: "DEL-300", Role: identity.RoleDelivery},
		identity.RoleAdministrator: {Subject: 4, EmployeeID: 400, NIK: "ADM-400", Role: identity.RoleAdministrator},
	} {
		token, err := verifier.Issue(claims, time.Hour)
		require.NoError(t, err)
		tokens[role] = token
	}
	return &testAPI{router: router, tokens: tokens}
}

func (a *testAPI) do(t *testing.T, role identity.Role, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[role])
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestOrderAPI_Lifecycle(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, identity.RoleEmployee, http.MethodPost, "/api/orders", map[string]any{"shiftId": 1, "quantity": 3, "orderDate": "2024-10-15"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[mapper.Order](t, rec)
	assert.Equal(t, "PM-20241015-001", created.Code)
	assert.Equal(t, "WAITING", string(created.Status))

	path := fmt.Sprintf("/api/orders/%d", created.ID)
	rec = api.do(t, identity.RoleKitchen, http.MethodPatch, path+"/status", map[string]string{"status": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, identity.RoleKitchen, http.MethodPost, path+"/request-rejection", map[string]string{"note": "stok habis hari ini"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pending := decode[mapper.Order](t, rec)
	assert.Equal(t, "AWAITING_APPROVAL", string(pending.Status))
	require.NotNil(t, pending.OriginalQuantity)
	assert.Equal(t, 3, *pending.OriginalQuantity)

	rec = api.do(t, identity.RoleAdministrator, http.MethodGet, "/api/orders/pending-approvals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]mapper.Order](t, rec), 1)

	rec = api.do(t, identity.RoleAdministrator, http.MethodPost, path+"/approve-reject", map[string]string{"decision": "APPROVED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "REJECTED", string(decode[mapper.Order](t, rec).Status))

	rec = api.do(t, identity.RoleEmployee, http.MethodGet, "/api/orders?page=1&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[mapper.OrderPage](t, rec)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 5, page.Limit)
	assert.Equal(t, 1, page.TotalPages)
}

func TestOrderAPI_ErrorMapping(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, identity.RoleEmployee, http.MethodPost, "/api/orders", map[string]any{"shiftId": 1, "quantity": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[mapper.Order](t, rec).ID
	path := fmt.Sprintf("/api/orders/%d", id)

	cases := []struct {
		name   string
		role   identity.Role
		method string
		path   string
		body   any
		status int
	}{
		{"no token", "", http.MethodGet, path, nil, http.StatusUnauthorized},
		{"role gate", identity.RoleEmployee, http.MethodPatch, path + "/status", map[string]string{"status": "IN_PROGRESS"}, http.StatusForbidden},
		{"transition table", identity.RoleDelivery, http.MethodPatch, path + "/status", map[string]string{"status": "ON_DELIVERY"}, http.StatusForbidden},
		{"unknown status", identity.RoleKitchen, http.MethodPatch, path + "/status", map[string]string{"status": "COOKING"}, http.StatusBadRequest},
		{"no-op transition", identity.RoleAdministrator, http.MethodPatch, path + "/status", map[string]string{"status": "WAITING"}, http.StatusBadRequest},
		{"short note", identity.RoleKitchen, http.MethodPost, path + "/request-rejection", map[string]string{"note": "short"}, http.StatusBadRequest},
		{"not pending", identity.RoleAdministrator, http.MethodPost, path + "/approve-reject", map[string]string{"decision": "APPROVED"}, http.StatusBadRequest},
		{"missing order", identity.RoleAdministrator, http.MethodGet, "/api/orders/999", nil, http.StatusNotFound},
		{"bad id", identity.RoleAdministrator, http.MethodGet, "/api/orders/abc", nil, http.StatusBadRequest},
		{"bad query", identity.RoleAdministrator, http.MethodGet, "/api/orders?departmentId=x", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := api.do(t, tc.role, tc.method, tc.path, tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
		})
	}
}

func TestOrderAPI_ValidationFieldsUseJSONNames(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, identity.RoleEmployee, http.MethodPost, "/api/orders", map[string]any{"quantity": 0})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	problem := decode[apierrors.ProblemDetail](t, rec)
	fields, ok := problem.Extensions["fields"].(map[string]any)
	require.True(t, ok, rec.Body.String())
	assert.Contains(t, fields, "shiftId")
	assert.Contains(t, fields, "quantity")
}

func TestOrderAPI_OrderProblemTypes(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, identity.RoleEmployee, http.MethodPost, "/api/orders", map[string]any{"shiftId": 1, "quantity": 4})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	path := fmt.Sprintf("/api/orders/%d", decode[mapper.Order](t, rec).ID)

	rec = api.do(t, identity.RoleDelivery, http.MethodPatch, path+"/status", map[string]string{"status": "ON_DELIVERY"})
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	problem := decode[apierrors.ProblemDetail](t, rec)
	assert.Equal(t, apierrors.TypeTransitionForbidden, problem.Type)
	assert.Equal(t, path+"/status", problem.Instance)

	rec = api.do(t, identity.RoleKitchen, http.MethodPost, path+"/request-rejection", map[string]string{"note": "kitchen ran out of rice"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(t, identity.RoleKitchen, http.MethodPost, path+"/request-rejection", map[string]string{"note": "asking a second time today"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, apierrors.TypeOrderPendingApproval, decode[apierrors.ProblemDetail](t, rec).Type)

	rec = api.do(t, identity.RoleEmployee, http.MethodPost, "/api/orders", map[string]any{"shiftId": 1, "quantity": 2, "orderDate": "12/06/2024"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	problem = decode[apierrors.ProblemDetail](t, rec)
	assert.Equal(t, apierrors.TypeValidation, problem.Type)
	assert.Contains(t, problem.Extensions["fields"], "orderDate")
}
