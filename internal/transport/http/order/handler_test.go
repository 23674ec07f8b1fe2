package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/fishtvlvoe/buygo/internal/dto"
	"github.com/fishtvlvoe/buygo/internal/identity"
	"github.com/fishtvlvoe/buygo/internal/rbac"
	ordersvc "github.com/fishtvlvoe/buygo/internal/service/order"
	"github.com/fishtvlvoe/buygo/pkg/errorbank"
)

type mockService struct {
	listFn   func(ctx context.Context, caller *identity.Caller, filter ordersvc.ListFilter) ([]dto.OrderSummary, error)
	getFn    func(ctx context.Context, caller *identity.Caller, id int64) (*dto.OrderDetail, error)
	updateFn func(ctx context.Context, caller *identity.Caller, id int64, patch ordersvc.UpdatePatch) error
}

func (m *mockService) List(ctx context.Context, caller *identity.Caller, filter ordersvc.ListFilter) ([]dto.OrderSummary, error) {
	return m.listFn(ctx, caller, filter)
}

func (m *mockService) Get(ctx context.Context, caller *identity.Caller, id int64) (*dto.OrderDetail, error) {
	return m.getFn(ctx, caller, id)
}

func (m *mockService) Update(ctx context.Context, caller *identity.Caller, id int64, patch ordersvc.UpdatePatch) error {
	return m.updateFn(ctx, caller, id, patch)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

func performRequest(t *testing.T, h *Handler, caller *identity.Caller, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	e := echo.New()
	Register(e, h)

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()

	c := e.NewContext(req, rec)
	e.Router().Find(method, strings.SplitN(target, "?", 2)[0], c)
	if caller != nil {
		identity.WithCaller(c, caller)
	}
	if err := c.Handler()(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid response body %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func adminCaller() *identity.Caller {
	return &identity.Caller{ID: 1, Roles: rbac.NewRoleSet(rbac.RoleAdmin), Admin: true}
}

func buyerCaller() *identity.Caller {
	return &identity.Caller{ID: 2, Roles: rbac.NewRoleSet(rbac.RoleBuyer)}
}

func TestListForbiddenWithoutReadRole(t *testing.T) {
	h := NewHandler(&mockService{})

	rec, env := performRequest(t, h, buyerCaller(), http.MethodGet, "/orders", "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if env.Success {
		t.Error("expected success=false")
	}
	if env.Message != "權限不足" {
		t.Errorf("message = %q, want 權限不足", env.Message)
	}
}

func TestListPassesFilter(t *testing.T) {
	var captured ordersvc.ListFilter
	h := NewHandler(&mockService{
		listFn: func(ctx context.Context, caller *identity.Caller, filter ordersvc.ListFilter) ([]dto.OrderSummary, error) {
			captured = filter
			return []dto.OrderSummary{{ID: 1, OrderNumber: "#1"}}, nil
		},
	})

	rec, env := performRequest(t, h, adminCaller(), http.MethodGet, "/orders?status=completed&search=chen", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !env.Success {
		t.Error("expected success=true")
	}
	if captured.Status != "completed" || captured.Search != "chen" {
		t.Errorf("filter = %+v, want status=completed search=chen", captured)
	}
	if total, ok := env.Meta["total"]; !ok || total != float64(1) {
		t.Errorf("meta total = %v, want 1", env.Meta["total"])
	}
}

func TestGetInvalidID(t *testing.T) {
	h := NewHandler(&mockService{})

	rec, env := performRequest(t, h, adminCaller(), http.MethodGet, "/orders/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if env.Message != "無效的訂單編號" {
		t.Errorf("message = %q, want 無效的訂單編號", env.Message)
	}
}

func TestGetNotFound(t *testing.T) {
	h := NewHandler(&mockService{
		getFn: func(ctx context.Context, caller *identity.Caller, id int64) (*dto.OrderDetail, error) {
			return nil, errorbank.NotFound("訂單不存在")
		},
	})

	rec, env := performRequest(t, h, adminCaller(), http.MethodGet, "/orders/99", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if env.Message != "訂單不存在" {
		t.Errorf("message = %q, want 訂單不存在", env.Message)
	}
}

func TestUpdateForbiddenForNonAdmin(t *testing.T) {
	updateCalled := false
	h := NewHandler(&mockService{
		updateFn: func(ctx context.Context, caller *identity.Caller, id int64, patch ordersvc.UpdatePatch) error {
			updateCalled = true
			return nil
		},
	})
	seller := &identity.Caller{ID: 3, Roles: rbac.NewRoleSet(rbac.RoleSeller)}

	rec, _ := performRequest(t, h, seller, http.MethodPut, "/orders/5", `{"status":"completed"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if updateCalled {
		t.Error("service must not be called without the write role")
	}
}

func TestUpdateNoOpPatch(t *testing.T) {
	h := NewHandler(&mockService{
		updateFn: func(ctx context.Context, caller *identity.Caller, id int64, patch ordersvc.UpdatePatch) error {
			return errorbank.BadRequest("沒有需要更新的資料")
		},
	})

	rec, env := performRequest(t, h, adminCaller(), http.MethodPut, "/orders/5", `{"payment_status":"bogus"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if env.Message != "沒有需要更新的資料" {
		t.Errorf("message = %q, want 沒有需要更新的資料", env.Message)
	}
}

func TestUpdateSuccess(t *testing.T) {
	var captured ordersvc.UpdatePatch
	h := NewHandler(&mockService{
		updateFn: func(ctx context.Context, caller *identity.Caller, id int64, patch ordersvc.UpdatePatch) error {
			captured = patch
			return nil
		},
	})

	rec, env := performRequest(t, h, adminCaller(), http.MethodPut, "/orders/5", `{"status":"completed","payment_status":"paid"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if env.Message != "訂單已更新" {
		t.Errorf("message = %q, want 訂單已更新", env.Message)
	}
	if captured.Status == nil || *captured.Status != "completed" {
		t.Error("status not bound from payload")
	}
	if captured.PaymentStatus == nil || *captured.PaymentStatus != "paid" {
		t.Error("payment_status not bound from payload")
	}
}
