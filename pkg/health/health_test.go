package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(name string) Checker {
	return NewFuncChecker(name, func(ctx context.Context) error { return nil })
}

func failing(name string) Checker {
	return NewFuncChecker(name, func(ctx context.Context) error { return errors.New("connection refused") })
}

func TestCheckerRegistry(t *testing.T) {
	tests := []struct {
		name     string
		required []Checker
		optional []Checker
		want     Status
	}{
		{"empty", nil, nil, StatusHealthy},
		{"all healthy", []Checker{ok("a"), ok("b")}, nil, StatusHealthy},
		{"optional failure degrades", []Checker{ok("a")}, []Checker{failing("broker")}, StatusDegraded},
		{"required failure", []Checker{failing("a")}, []Checker{failing("broker")}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewCheckerRegistry()
			for _, c := range tt.required {
				r.Register(c)
			}
			for _, c := range tt.optional {
				r.RegisterOptional(c)
			}

			h := r.Check(context.Background())
			assert.Equal(t, tt.want, h.Status)
			assert.Len(t, h.Checks, len(tt.required)+len(tt.optional))
		})
	}
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := NewCheckerRegistry()
	r.Register(ok("rule_store"))
	r.RegisterOptional(failing("broker"))

	router := gin.New()
	router.GET("/health", r.Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var h Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.Equal(t, StatusDegraded, h.Status)
	assert.Equal(t, "connection refused", h.Checks["broker"].Message)

	r.Register(failing("postgresql"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
