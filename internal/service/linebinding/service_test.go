package linebinding

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fishtvlvoe/buygo/internal/entity"
	"github.com/fishtvlvoe/buygo/internal/identity"
	linebindingrepo "github.com/fishtvlvoe/buygo/internal/repository/linebinding"
	"github.com/fishtvlvoe/buygo/pkg/errorbank"
)

type mockStore struct {
	createFn        func(ctx context.Context, binding *entity.LineBinding) error
	getByCodeFn     func(ctx context.Context, code string) (*entity.LineBinding, error)
	expirePendingFn func(ctx context.Context, userID int64) error
	markExpiredFn   func(ctx context.Context, id int64) error
	completeFn      func(ctx context.Context, id int64, lineUID string, completedAt time.Time) error
}

func (m *mockStore) Create(ctx context.Context, binding *entity.LineBinding) error {
	if m.createFn == nil {
		binding.ID = 1
		return nil
	}
	return m.createFn(ctx, binding)
}

func (m *mockStore) GetByCode(ctx context.Context, code string) (*entity.LineBinding, error) {
	return m.getByCodeFn(ctx, code)
}

func (m *mockStore) ExpirePending(ctx context.Context, userID int64) error {
	if m.expirePendingFn == nil {
		return nil
	}
	return m.expirePendingFn(ctx, userID)
}

func (m *mockStore) MarkExpired(ctx context.Context, id int64) error {
	if m.markExpiredFn == nil {
		return nil
	}
	return m.markExpiredFn(ctx, id)
}

func (m *mockStore) Complete(ctx context.Context, id int64, lineUID string, completedAt time.Time) error {
	if m.completeFn == nil {
		return nil
	}
	return m.completeFn(ctx, id, lineUID, completedAt)
}

func newTestService(store *mockStore) *Service {
	return &Service{store: store, logger: zap.NewNop(), codeTTL: 10 * time.Minute}
}

func caller(id int64) *identity.Caller {
	return &identity.Caller{ID: id}
}

func TestGenerate(t *testing.T) {
	t.Run("supersedes outstanding codes", func(t *testing.T) {
		var expiredFor int64
		var created *entity.LineBinding
		store := &mockStore{
			expirePendingFn: func(ctx context.Context, userID int64) error {
				expiredFor = userID
				return nil
			},
			createFn: func(ctx context.Context, binding *entity.LineBinding) error {
				binding.ID = 3
				created = binding
				return nil
			},
		}
		svc := newTestService(store)

		binding, err := svc.Generate(context.Background(), caller(15))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if expiredFor != 15 {
			t.Errorf("expired pending for user %d, want 15", expiredFor)
		}
		if len(binding.BindingCode) != codeLength {
			t.Errorf("code length = %d, want %d", len(binding.BindingCode), codeLength)
		}
		for _, r := range binding.BindingCode {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Errorf("code contains unexpected character %q", r)
			}
		}
		if created.Status != entity.BindingPending {
			t.Errorf("status = %q, want pending", created.Status)
		}
		if !created.ExpiresAt.After(created.CreatedAt) {
			t.Error("expiry must be after creation")
		}
	})

	t.Run("codes vary between calls", func(t *testing.T) {
		svc := newTestService(&mockStore{})

		seen := make(map[string]struct{})
		for i := 0; i < 16; i++ {
			binding, err := svc.Generate(context.Background(), caller(15))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			seen[binding.BindingCode] = struct{}{}
		}
		if len(seen) < 2 {
			t.Error("expected distinct codes across calls")
		}
	})
}

func TestConfirm(t *testing.T) {
	t.Run("missing inputs rejected", func(t *testing.T) {
		svc := newTestService(&mockStore{})

		err := svc.Confirm(context.Background(), ConfirmRequest{Code: "ABC123"})
		if errorbank.From(err).Kind() != errorbank.KindBadRequest {
			t.Errorf("kind = %v, want bad_request", errorbank.From(err).Kind())
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		store := &mockStore{
			getByCodeFn: func(ctx context.Context, code string) (*entity.LineBinding, error) {
				return nil, linebindingrepo.ErrNotFound
			},
		}
		svc := newTestService(store)

		err := svc.Confirm(context.Background(), ConfirmRequest{Code: "ABC123", LineUID: "U123"})
		if errorbank.From(err).Kind() != errorbank.KindNotFound {
			t.Errorf("kind = %v, want not_found", errorbank.From(err).Kind())
		}
	})

	t.Run("used code is gone", func(t *testing.T) {
		store := &mockStore{
			getByCodeFn: func(ctx context.Context, code string) (*entity.LineBinding, error) {
				return &entity.LineBinding{ID: 1, Status: entity.BindingCompleted}, nil
			},
		}
		svc := newTestService(store)

		err := svc.Confirm(context.Background(), ConfirmRequest{Code: "ABC123", LineUID: "U123"})
		if errorbank.From(err).Kind() != errorbank.KindGone {
			t.Errorf("kind = %v, want gone", errorbank.From(err).Kind())
		}
	})

	t.Run("expired code is gone and marked", func(t *testing.T) {
		var marked int64
		store := &mockStore{
			getByCodeFn: func(ctx context.Context, code string) (*entity.LineBinding, error) {
				return &entity.LineBinding{
					ID:        2,
					Status:    entity.BindingPending,
					ExpiresAt: time.Now().UTC().Add(-time.Minute),
				}, nil
			},
			markExpiredFn: func(ctx context.Context, id int64) error {
				marked = id
				return nil
			},
		}
		svc := newTestService(store)

		err := svc.Confirm(context.Background(), ConfirmRequest{Code: "ABC123", LineUID: "U123"})
		if errorbank.From(err).Kind() != errorbank.KindGone {
			t.Errorf("kind = %v, want gone", errorbank.From(err).Kind())
		}
		if marked != 2 {
			t.Errorf("marked binding %d as expired, want 2", marked)
		}
	})

	t.Run("valid code completes", func(t *testing.T) {
		var completedID int64
		var completedUID string
		store := &mockStore{
			getByCodeFn: func(ctx context.Context, code string) (*entity.LineBinding, error) {
				if code != "ABC123" {
					t.Errorf("looked up code %q, want ABC123", code)
				}
				return &entity.LineBinding{
					ID:        3,
					Status:    entity.BindingPending,
					ExpiresAt: time.Now().UTC().Add(time.Minute),
				}, nil
			},
			completeFn: func(ctx context.Context, id int64, lineUID string, completedAt time.Time) error {
				completedID = id
				completedUID = lineUID
				return nil
			},
		}
		svc := newTestService(store)

		if err := svc.Confirm(context.Background(), ConfirmRequest{Code: "abc123", LineUID: "U123"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if completedID != 3 {
			t.Errorf("completed binding %d, want 3", completedID)
		}
		if completedUID != "U123" {
			t.Errorf("line uid = %q, want U123", completedUID)
		}
	})
}
