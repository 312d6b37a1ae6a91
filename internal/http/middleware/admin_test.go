package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func adminRouter(key string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AdminKey(key))
	r.GET("/guarded", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestAdminKeyRejectsWrongKey(t *testing.T) {
	r := adminRouter("secret")

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing key should 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("X-Admin-Key", "wrong")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key should 401, got %d", rec.Code)
	}
}

func TestAdminKeyAcceptsMatchingKey(t *testing.T) {
	r := adminRouter("secret")

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("X-Admin-Key", "secret")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("matching key should pass, got %d", rec.Code)
	}
}

func TestAdminKeyEmptyLeavesOpen(t *testing.T) {
	r := adminRouter("")

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("empty configured key should leave the gate open, got %d", rec.Code)
	}
}
