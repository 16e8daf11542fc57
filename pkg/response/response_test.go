package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, gin.H{"n": 1})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	resp := decode(t, w)
	if resp.Code != 0 || resp.Message != "success" || resp.Data == nil {
		t.Errorf("response = %+v", resp)
	}
}

func TestErrorIncludesCause(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, http.StatusBadRequest, "Invalid period", errors.New("end before start"))

	resp := decode(t, w)
	if resp.Code != http.StatusBadRequest || resp.Error != "end before start" {
		t.Errorf("response = %+v", resp)
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name string
		send func(*gin.Context)
		want int
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, "bad") }, http.StatusBadRequest},
		{"not found", func(c *gin.Context) { NotFound(c, "missing") }, http.StatusNotFound},
		{"internal", func(c *gin.Context) { InternalError(c, "boom") }, http.StatusInternalServerError},
		{"abort", func(c *gin.Context) { Abort(c, http.StatusUnauthorized, "no") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.send(c)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if resp := decode(t, w); resp.Code != tt.want || resp.Data != nil {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}
