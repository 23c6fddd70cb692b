package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type sampleBody struct {
	Title  string  `json:"title" binding:"required,max=5"`
	Points float64 `json:"points" binding:"gt=0"`
}

type sampleQuery struct {
	Page int `form:"page" binding:"omitempty,min=1"`
}

func newContext(method, target, body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func TestBindUsesJSONFieldNames(t *testing.T) {
	Setup()

	c := newContext(http.MethodPost, "/", `{"title":"too long title","points":0}`)
	var dst sampleBody
	fields := Bind(c, &dst)
	if fields == nil {
		t.Fatal("expected validation errors")
	}
	if _, ok := fields["title"]; !ok {
		t.Fatalf("expected title error, got %v", fields)
	}
	if _, ok := fields["points"]; !ok {
		t.Fatalf("expected points error, got %v", fields)
	}
}

func TestBindSyntaxError(t *testing.T) {
	Setup()

	c := newContext(http.MethodPost, "/", `{"title":`)
	var dst sampleBody
	fields := Bind(c, &dst)
	if _, ok := fields["detail"]; !ok {
		t.Fatalf("expected detail entry, got %v", fields)
	}
}

func TestBindQuery(t *testing.T) {
	Setup()

	c := newContext(http.MethodGet, "/?page=-1", "")
	var q sampleQuery
	if fields := BindQuery(c, &q); fields == nil {
		t.Fatal("expected page=-1 to be rejected")
	}

	// Zero is left for the caller to default.
	c = newContext(http.MethodGet, "/?page=0", "")
	q = sampleQuery{}
	if fields := BindQuery(c, &q); fields != nil {
		t.Fatalf("expected page=0 to pass, got %v", fields)
	}

	c = newContext(http.MethodGet, "/?page=3", "")
	q = sampleQuery{}
	if fields := BindQuery(c, &q); fields != nil {
		t.Fatalf("unexpected errors: %v", fields)
	}
	if q.Page != 3 {
		t.Fatalf("expected page 3, got %d", q.Page)
	}
}
