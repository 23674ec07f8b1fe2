package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/fishtvlvoe/buygo/pkg/errorbank"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestBuildSuccess(t *testing.T) {
	c, rec := newContext()

	err := New(c).WithData(map[string]string{"name": "tea"}).WithMeta("count", 1).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	body := decode(t, rec)
	if body["success"] != true {
		t.Error("expected success=true")
	}
	if body["data"].(map[string]any)["name"] != "tea" {
		t.Error("data not carried through")
	}
	if body["meta"].(map[string]any)["count"] != float64(1) {
		t.Error("meta not carried through")
	}
}

func TestBuildSuccessWithStatus(t *testing.T) {
	c, rec := newContext()

	if err := New(c).WithStatus(http.StatusCreated).WithMessage("done").Build(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if decode(t, rec)["message"] != "done" {
		t.Error("message not carried through")
	}
}

func TestBuildErrorUsesKindStatus(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "bad request", err: errorbank.BadRequest("無效的請求內容"), status: http.StatusBadRequest},
		{name: "forbidden", err: errorbank.Forbidden("權限不足"), status: http.StatusForbidden},
		{name: "not found", err: errorbank.NotFound("訂單不存在"), status: http.StatusNotFound},
		{name: "conflict", err: errorbank.Conflict("重複"), status: http.StatusConflict},
		{name: "gone", err: errorbank.Gone("已過期"), status: http.StatusGone},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext()

			if err := New(c).WithError(tc.err).Build(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}

			body := decode(t, rec)
			if body["success"] != false {
				t.Error("expected success=false")
			}
			if body["message"] == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestBuildErrorWrapsUnknown(t *testing.T) {
	c, rec := newContext()

	if err := New(c).WithError(echo.ErrTooManyRequests).Build(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
