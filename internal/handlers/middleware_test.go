package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"todoapp/internal/auth"
	"todoapp/internal/dto"
	"todoapp/internal/service"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{dto.NewValidationError("title: is required"), http.StatusBadRequest, "Validation failed"},
		{fmt.Errorf("resolve: %w", auth.ErrUnauthorized), http.StatusUnauthorized, "Unauthorized"},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password"},
		{fmt.Errorf("get todo: %w", service.ErrNotFound), http.StatusNotFound, "Todo not found"},
		{service.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{service.ErrUsernameTaken, http.StatusConflict, "Username already taken"},
		{errors.New("connection refused"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		got := errorResponse(tt.err)
		if got.Status != tt.status || got.Error != tt.message {
			t.Errorf("errorResponse(%v) = %+v", tt.err, got)
		}
	}
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	logger := log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel, Formatter: log.JSONFormatter})

	r := gin.New()
	r.Use(ErrorHandler(logger))
	r.GET("/invalid", func(c *gin.Context) {
		_ = c.Error(dto.NewValidationError("title: is required", "priority: must be one of LOW MEDIUM HIGH"))
	})
	r.GET("/broken", func(c *gin.Context) {
		_ = c.Error(errors.New("db: connection reset"))
	})
	r.GET("/written", func(c *gin.Context) {
		c.String(http.StatusTeapot, "short and stout")
		_ = c.Error(errors.New("ignored"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invalid", nil))
	var body dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	want := dto.ErrorResponse{Error: "Validation failed", Status: 400, Details: []string{"title: is required", "priority: must be one of LOW MEDIUM HIGH"}}
	if w.Code != http.StatusBadRequest || !reflect.DeepEqual(body, want) {
		t.Fatalf("invalid: %d %+v", w.Code, body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken", nil))
	if w.Code != http.StatusInternalServerError || strings.Contains(w.Body.String(), "connection reset") {
		t.Fatalf("internal error leaked: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(logs.String(), "connection reset") || !strings.Contains(logs.String(), "/broken") {
		t.Fatalf("internal error not logged: %s", logs.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/written", nil))
	if w.Code != http.StatusTeapot || w.Body.String() != "short and stout" {
		t.Fatalf("written response replaced: %d %s", w.Code, w.Body.String())
	}
}
