package order

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fishtvlvoe/buygo/internal/commerce"
	"github.com/fishtvlvoe/buygo/internal/identity"
	"github.com/fishtvlvoe/buygo/internal/rbac"
	orderrepo "github.com/fishtvlvoe/buygo/internal/repository/order"
	userrepo "github.com/fishtvlvoe/buygo/internal/repository/user"
	"github.com/fishtvlvoe/buygo/pkg/errorbank"
)

type mockStore struct {
	listFn      func(ctx context.Context, scope commerce.Scope, query orderrepo.Query) ([]orderrepo.Row, error)
	getFn       func(ctx context.Context, scope commerce.Scope, id int64) (*orderrepo.Row, error)
	itemsFn     func(ctx context.Context, orderID int64) ([]orderrepo.ItemRow, error)
	itemCountFn func(ctx context.Context, orderID int64) (int, error)
	sellerIDsFn func(ctx context.Context, orderID int64) ([]int64, error)
	updateFn    func(ctx context.Context, id int64, changes map[string]any) error
}

func (m *mockStore) List(ctx context.Context, scope commerce.Scope, query orderrepo.Query) ([]orderrepo.Row, error) {
	return m.listFn(ctx, scope, query)
}

func (m *mockStore) GetByID(ctx context.Context, scope commerce.Scope, id int64) (*orderrepo.Row, error) {
	return m.getFn(ctx, scope, id)
}

func (m *mockStore) Items(ctx context.Context, orderID int64) ([]orderrepo.ItemRow, error) {
	if m.itemsFn == nil {
		return nil, nil
	}
	return m.itemsFn(ctx, orderID)
}

func (m *mockStore) ItemCount(ctx context.Context, orderID int64) (int, error) {
	if m.itemCountFn == nil {
		return 0, nil
	}
	return m.itemCountFn(ctx, orderID)
}

func (m *mockStore) SellerIDs(ctx context.Context, orderID int64) ([]int64, error) {
	if m.sellerIDsFn == nil {
		return nil, nil
	}
	return m.sellerIDsFn(ctx, orderID)
}

func (m *mockStore) Update(ctx context.Context, id int64, changes map[string]any) error {
	return m.updateFn(ctx, id, changes)
}

type mockDirectory struct {
	lookupFn func(ctx context.Context, id int64) (*userrepo.Record, error)
}

func (m *mockDirectory) Lookup(ctx context.Context, id int64) (*userrepo.Record, error) {
	if m.lookupFn == nil {
		return nil, userrepo.ErrNotFound
	}
	return m.lookupFn(ctx, id)
}

func newTestService(store *mockStore, directory *mockDirectory) *Service {
	return &Service{
		store:            store,
		directory:        directory,
		publisher:        nil,
		logger:           zap.NewNop(),
		messagingEnabled: false,
	}
}

func adminCaller() *identity.Caller {
	return &identity.Caller{ID: 1, Roles: rbac.NewRoleSet(rbac.RoleAdmin), Admin: true}
}

func sellerCaller(id int64) *identity.Caller {
	return &identity.Caller{ID: id, Roles: rbac.NewRoleSet(rbac.RoleSeller), Admin: false}
}

func TestDerivePaymentStatus(t *testing.T) {
	testCases := []struct {
		name          string
		paymentStatus string
		status        string
		want          string
	}{
		{name: "explicit status wins", paymentStatus: "refunded", status: "completed", want: "refunded"},
		{name: "completed without explicit is paid", paymentStatus: "", status: "completed", want: "paid"},
		{name: "pending order defaults to pending", paymentStatus: "", status: "pending", want: "pending"},
		{name: "cancelled order defaults to pending", paymentStatus: "", status: "cancelled", want: "pending"},
		{name: "empty everything is pending", paymentStatus: "", status: "", want: "pending"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DerivePaymentStatus(tc.paymentStatus, tc.status); got != tc.want {
				t.Errorf("DerivePaymentStatus(%q, %q) = %q, want %q", tc.paymentStatus, tc.status, got, tc.want)
			}
		})
	}
}

func TestNormalizeTotal(t *testing.T) {
	testCases := []struct {
		name  string
		total float64
		want  float64
	}{
		{name: "small total unchanged", total: 500, want: 500},
		{name: "boundary kept as-is", total: 10000, want: 10000},
		{name: "above boundary divided", total: 10001, want: 100.01},
		{name: "large cents total divided", total: 150000, want: 1500},
		{name: "zero unchanged", total: 0, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeTotal(tc.total); got != tc.want {
				t.Errorf("NormalizeTotal(%v) = %v, want %v", tc.total, got, tc.want)
			}
		})
	}
}

func TestBuildListQuery(t *testing.T) {
	testCases := []struct {
		name   string
		filter ListFilter
		want   orderrepo.Query
	}{
		{
			name:   "empty filter",
			filter: ListFilter{},
			want:   orderrepo.Query{},
		},
		{
			name:   "status all disables filter",
			filter: ListFilter{Status: "all"},
			want:   orderrepo.Query{},
		},
		{
			name:   "explicit status",
			filter: ListFilter{Status: "completed"},
			want:   orderrepo.Query{Status: "completed"},
		},
		{
			name:   "numeric search matches id",
			filter: ListFilter{Search: "42"},
			want:   orderrepo.Query{IDEquals: 42},
		},
		{
			name:   "name search matches customer",
			filter: ListFilter{Search: "chen"},
			want:   orderrepo.Query{NameLike: "chen"},
		},
		{
			name:   "search is trimmed",
			filter: ListFilter{Search: "  chen  "},
			want:   orderrepo.Query{NameLike: "chen"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildListQuery(tc.filter); got != tc.want {
				t.Errorf("BuildListQuery(%+v) = %+v, want %+v", tc.filter, got, tc.want)
			}
		})
	}
}

func TestListScoping(t *testing.T) {
	var captured commerce.Scope
	store := &mockStore{
		listFn: func(ctx context.Context, scope commerce.Scope, query orderrepo.Query) ([]orderrepo.Row, error) {
			captured = scope
			return nil, nil
		},
	}
	svc := newTestService(store, &mockDirectory{})

	t.Run("admin gets unrestricted scope", func(t *testing.T) {
		if _, err := svc.List(context.Background(), adminCaller(), ListFilter{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !captured.Admin {
			t.Error("expected admin scope")
		}
	})

	t.Run("seller gets own scope", func(t *testing.T) {
		if _, err := svc.List(context.Background(), sellerCaller(77), ListFilter{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if captured.Admin {
			t.Error("expected restricted scope")
		}
		if captured.UserID != 77 {
			t.Errorf("scope user = %d, want 77", captured.UserID)
		}
	})
}

func TestListSummaries(t *testing.T) {
	store := &mockStore{
		listFn: func(ctx context.Context, scope commerce.Scope, query orderrepo.Query) ([]orderrepo.Row, error) {
			return []orderrepo.Row{
				{
					ID:          12,
					TotalAmount: sql.NullFloat64{Float64: 150000, Valid: true},
					Status:      sql.NullString{String: "completed", Valid: true},
					FirstName:   sql.NullString{String: "Mei", Valid: true},
					LastName:    sql.NullString{String: "Lin", Valid: true},
					Email:       sql.NullString{String: "mei@example.com", Valid: true},
				},
				{
					ID: 11,
				},
			}, nil
		},
		itemCountFn: func(ctx context.Context, orderID int64) (int, error) {
			return 3, nil
		},
	}
	svc := newTestService(store, &mockDirectory{})

	summaries, err := svc.List(context.Background(), adminCaller(), ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}

	first := summaries[0]
	if first.OrderNumber != "#12" {
		t.Errorf("order number = %q, want #12", first.OrderNumber)
	}
	if first.Total != 1500 {
		t.Errorf("total = %v, want 1500", first.Total)
	}
	if first.PaymentStatus != "paid" {
		t.Errorf("payment status = %q, want paid", first.PaymentStatus)
	}
	if first.CustomerName != "Mei Lin" {
		t.Errorf("customer name = %q, want Mei Lin", first.CustomerName)
	}
	if first.ItemCount != 3 {
		t.Errorf("item count = %d, want 3", first.ItemCount)
	}
	if first.Currency != "TWD" {
		t.Errorf("currency = %q, want TWD", first.Currency)
	}

	second := summaries[1]
	if second.CustomerName != "Guest" {
		t.Errorf("customer name = %q, want Guest", second.CustomerName)
	}
	if second.Status != "pending" {
		t.Errorf("status = %q, want pending", second.Status)
	}
	if second.PaymentStatus != "pending" {
		t.Errorf("payment status = %q, want pending", second.PaymentStatus)
	}
}

func TestListCustomerFallback(t *testing.T) {
	store := &mockStore{
		listFn: func(ctx context.Context, scope commerce.Scope, query orderrepo.Query) ([]orderrepo.Row, error) {
			return []orderrepo.Row{
				{
					ID:     5,
					UserID: sql.NullInt64{Int64: 31, Valid: true},
				},
			}, nil
		},
	}
	directory := &mockDirectory{
		lookupFn: func(ctx context.Context, id int64) (*userrepo.Record, error) {
			if id != 31 {
				t.Errorf("looked up user %d, want 31", id)
			}
			return &userrepo.Record{ID: 31, Login: "wang123", DisplayName: "Wang", Email: "wang@example.com"}, nil
		},
	}
	svc := newTestService(store, directory)

	summaries, err := svc.List(context.Background(), adminCaller(), ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summaries[0].CustomerName != "Wang" {
		t.Errorf("customer name = %q, want Wang", summaries[0].CustomerName)
	}
	if summaries[0].CustomerEmail != "wang@example.com" {
		t.Errorf("customer email = %q, want wang@example.com", summaries[0].CustomerEmail)
	}
}

func TestGetNotFound(t *testing.T) {
	store := &mockStore{
		getFn: func(ctx context.Context, scope commerce.Scope, id int64) (*orderrepo.Row, error) {
			return nil, orderrepo.ErrNotFound
		},
	}
	svc := newTestService(store, &mockDirectory{})

	_, err := svc.Get(context.Background(), adminCaller(), 99)
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := errorbank.From(err)
	if appErr.Kind() != errorbank.KindNotFound {
		t.Errorf("kind = %v, want not_found", appErr.Kind())
	}
	if appErr.Message() != "訂單不存在" {
		t.Errorf("message = %q, want 訂單不存在", appErr.Message())
	}
}

func TestGetScoping(t *testing.T) {
	t.Run("seller scope reaches the store", func(t *testing.T) {
		var captured commerce.Scope
		store := &mockStore{
			getFn: func(ctx context.Context, scope commerce.Scope, id int64) (*orderrepo.Row, error) {
				captured = scope
				return &orderrepo.Row{ID: 17}, nil
			},
		}
		svc := newTestService(store, &mockDirectory{})

		if _, err := svc.Get(context.Background(), sellerCaller(44), 17); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if captured.Admin {
			t.Error("expected restricted scope")
		}
		if captured.UserID != 44 {
			t.Errorf("scope user = %d, want 44", captured.UserID)
		}
	})

	t.Run("scoped-out order reads as missing", func(t *testing.T) {
		store := &mockStore{
			getFn: func(ctx context.Context, scope commerce.Scope, id int64) (*orderrepo.Row, error) {
				if scope.Admin {
					return &orderrepo.Row{ID: 17}, nil
				}
				return nil, orderrepo.ErrNotFound
			},
		}
		svc := newTestService(store, &mockDirectory{})

		_, err := svc.Get(context.Background(), sellerCaller(44), 17)
		appErr := errorbank.From(err)
		if appErr.Kind() != errorbank.KindNotFound {
			t.Errorf("kind = %v, want not_found", appErr.Kind())
		}
		if appErr.Message() != "訂單不存在" {
			t.Errorf("message = %q, want 訂單不存在", appErr.Message())
		}
	})
}

func TestGetWithItems(t *testing.T) {
	store := &mockStore{
		getFn: func(ctx context.Context, scope commerce.Scope, id int64) (*orderrepo.Row, error) {
			return &orderrepo.Row{ID: 7, Status: sql.NullString{String: "processing", Valid: true}}, nil
		},
		itemsFn: func(ctx context.Context, orderID int64) ([]orderrepo.ItemRow, error) {
			return []orderrepo.ItemRow{
				{
					ID:          1,
					OrderID:     7,
					PostID:      300,
					Quantity:    sql.NullInt64{Int64: 2, Valid: true},
					ItemPrice:   sql.NullFloat64{Float64: 4500, Valid: true},
					ProductName: sql.NullString{String: "Tea Set", Valid: true},
				},
			}, nil
		},
	}
	svc := newTestService(store, &mockDirectory{})

	detail, err := svc.Get(context.Background(), adminCaller(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detail.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(detail.Items))
	}
	if detail.Items[0].ProductName != "Tea Set" {
		t.Errorf("product name = %q, want Tea Set", detail.Items[0].ProductName)
	}
	if detail.Items[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2", detail.Items[0].Quantity)
	}
	if detail.ItemCount != 1 {
		t.Errorf("item count = %d, want 1", detail.ItemCount)
	}
}

func TestUpdate(t *testing.T) {
	completed := "completed"
	paid := "paid"
	bogus := "shipped"

	t.Run("order not found", func(t *testing.T) {
		store := &mockStore{
			getFn: func(ctx context.Context, scope commerce.Scope, id int64) (*orderrepo.Row, error) {
				return nil, orderrepo.ErrNotFound
			},
		}
		svc := newTestService(store, &mockDirectory{})

		err := svc.Update(context.Background(), adminCaller(), 5, UpdatePatch{Status: &completed})
		appErr := errorbank.From(err)
		if appErr.Kind() != errorbank.KindNotFound {
			t.Errorf("kind = %v, want not_found", appErr.Kind())
		}
		if appErr.Message() != "訂單不存在" {
			t.Errorf("message = %q, want 訂單不存在", appErr.Message())
		}
	})

	t.Run("invalid values are dropped and rejected as no-op", func(t *testing.T) {
		updateCalled := false
		store := &mockStore{
			getFn: func(ctx context.Context, scope commerce.Scope, id int64) (*orderrepo.Row, error) {
				return &orderrepo.Row{ID: 5}, nil
			},
			updateFn: func(ctx context.Context, id int64, changes map[string]any) error {
				updateCalled = true
				return nil
			},
		}
		svc := newTestService(store, &mockDirectory{})

		err := svc.Update(context.Background(), adminCaller(), 5, UpdatePatch{Status: &bogus})
		appErr := errorbank.From(err)
		if appErr.Kind() != errorbank.KindBadRequest {
			t.Errorf("kind = %v, want bad_request", appErr.Kind())
		}
		if appErr.Message() != "沒有需要更新的資料" {
			t.Errorf("message = %q, want 沒有需要更新的資料", appErr.Message())
		}
		if updateCalled {
			t.Error("store update must not be called for a no-op patch")
		}
	})

	t.Run("empty patch rejected", func(t *testing.T) {
		store := &mockStore{
			getFn: func(ctx context.Context, scope commerce.Scope, id int64) (*orderrepo.Row, error) {
				return &orderrepo.Row{ID: 5}, nil
			},
		}
		svc := newTestService(store, &mockDirectory{})

		err := svc.Update(context.Background(), adminCaller(), 5, UpdatePatch{})
		if errorbank.From(err).Kind() != errorbank.KindBadRequest {
			t.Errorf("kind = %v, want bad_request", errorbank.From(err).Kind())
		}
	})

	t.Run("first completion stamps completed_at", func(t *testing.T) {
		var captured map[string]any
		store := &mockStore{
			getFn: func(ctx context.Context, scope commerce.Scope, id int64) (*orderrepo.Row, error) {
				return &orderrepo.Row{ID: 5, Status: sql.NullString{String: "processing", Valid: true}}, nil
			},
			updateFn: func(ctx context.Context, id int64, changes map[string]any) error {
				captured = changes
				return nil
			},
		}
		svc := newTestService(store, &mockDirectory{})

		if err := svc.Update(context.Background(), adminCaller(), 5, UpdatePatch{Status: &completed}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if captured["status"] != "completed" {
			t.Errorf("status change = %v, want completed", captured["status"])
		}
		if _, ok := captured["completed_at"]; !ok {
			t.Error("expected completed_at to be stamped")
		}
		if _, ok := captured["updated_at"]; !ok {
			t.Error("expected updated_at to be stamped")
		}
	})

	t.Run("already completed keeps original timestamp", func(t *testing.T) {
		var captured map[string]any
		store := &mockStore{
			getFn: func(ctx context.Context, scope commerce.Scope, id int64) (*orderrepo.Row, error) {
				return &orderrepo.Row{
					ID:          5,
					Status:      sql.NullString{String: "completed", Valid: true},
					CompletedAt: sql.NullTime{Time: time.Now(), Valid: true},
				}, nil
			},
			updateFn: func(ctx context.Context, id int64, changes map[string]any) error {
				captured = changes
				return nil
			},
		}
		svc := newTestService(store, &mockDirectory{})

		if err := svc.Update(context.Background(), adminCaller(), 5, UpdatePatch{Status: &completed}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := captured["completed_at"]; ok {
			t.Error("completed_at must not be overwritten")
		}
	})

	t.Run("payment status updates alone", func(t *testing.T) {
		var captured map[string]any
		store := &mockStore{
			getFn: func(ctx context.Context, scope commerce.Scope, id int64) (*orderrepo.Row, error) {
				return &orderrepo.Row{ID: 5}, nil
			},
			updateFn: func(ctx context.Context, id int64, changes map[string]any) error {
				captured = changes
				return nil
			},
		}
		svc := newTestService(store, &mockDirectory{})

		if err := svc.Update(context.Background(), adminCaller(), 5, UpdatePatch{PaymentStatus: &paid}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if captured["payment_status"] != "paid" {
			t.Errorf("payment_status change = %v, want paid", captured["payment_status"])
		}
		if _, ok := captured["status"]; ok {
			t.Error("status must not change")
		}
	})

	t.Run("write failure surfaces as internal", func(t *testing.T) {
		store := &mockStore{
			getFn: func(ctx context.Context, scope commerce.Scope, id int64) (*orderrepo.Row, error) {
				return &orderrepo.Row{ID: 5}, nil
			},
			updateFn: func(ctx context.Context, id int64, changes map[string]any) error {
				return errors.New("disk on fire")
			},
		}
		svc := newTestService(store, &mockDirectory{})

		err := svc.Update(context.Background(), adminCaller(), 5, UpdatePatch{Status: &completed})
		appErr := errorbank.From(err)
		if appErr.Kind() != errorbank.KindInternal {
			t.Errorf("kind = %v, want internal", appErr.Kind())
		}
		if appErr.Message() != "更新失敗" {
			t.Errorf("message = %q, want 更新失敗", appErr.Message())
		}
	})
}

