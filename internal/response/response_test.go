package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFail_UsesRequestIDAndMessage(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/x", func(c *gin.Context) {
		Fail(c, http.StatusConflict, ErrAttemptCompleted)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error == nil || body.Error.Code != ErrAttemptCompleted {
		t.Fatalf("unexpected error body %+v", body.Error)
	}
	if body.Error.Message != GetMessage(ErrAttemptCompleted) {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}
	if body.Metadata.RequestID != "req-123" || w.Header().Get("X-Request-ID") != "req-123" {
		t.Fatalf("request id not propagated: %+v", body.Metadata)
	}
}

func TestFailWithMessage(t *testing.T) {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		FailWithMessage(c, http.StatusBadRequest, ErrInvalidFormat, "missing title")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Message != "missing title" {
		t.Fatalf("expected verbatim reason, got %q", body.Error.Message)
	}
	if body.Metadata.RequestID == "" {
		t.Fatalf("expected a fallback request id")
	}
}

func TestGetMessage_Default(t *testing.T) {
	if GetMessage("SOMETHING_ELSE") != "An unexpected error occurred." {
		t.Fatalf("unexpected default message")
	}
}
