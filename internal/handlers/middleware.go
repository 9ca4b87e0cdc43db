package handlers

import (
	"errors"
	"net/http"
	"time"

	"todoapp/internal/auth"
	"todoapp/internal/dto"
	"todoapp/internal/service"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error recorded with c.Error as the uniform
// {error, status, details} envelope. It must run before the handlers it covers.
func ErrorHandler(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		resp := errorResponse(err)
		if resp.Status >= http.StatusInternalServerError {
			userID, _ := auth.UserID(c)
			logger.Error("request failed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"status", resp.Status,
				"user", userID,
				"err", err,
			)
		} else {
			logger.Debug("request rejected",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"status", resp.Status,
				"err", err,
			)
		}
		c.AbortWithStatusJSON(resp.Status, resp)
	}
}

func errorResponse(err error) dto.ErrorResponse {
	var verr *dto.ValidationError
	switch {
	case errors.As(err, &verr):
		return dto.ErrorResponse{Error: "Validation failed", Status: http.StatusBadRequest, Details: verr.Details}
	case errors.Is(err, auth.ErrUnauthorized):
		return dto.ErrorResponse{Error: "Unauthorized", Status: http.StatusUnauthorized}
	case errors.Is(err, service.ErrInvalidCredentials):
		return dto.ErrorResponse{Error: "Invalid username or password", Status: http.StatusUnauthorized}
	case errors.Is(err, service.ErrNotFound):
		return dto.ErrorResponse{Error: "Todo not found", Status: http.StatusNotFound}
	case errors.Is(err, service.ErrUserNotFound):
		return dto.ErrorResponse{Error: "User not found", Status: http.StatusNotFound}
	case errors.Is(err, service.ErrUsernameTaken):
		return dto.ErrorResponse{Error: "Username already taken", Status: http.StatusConflict}
	default:
		return dto.ErrorResponse{Error: "Internal server error", Status: http.StatusInternalServerError}
	}
}

// NotFound answers unknown routes with the error envelope.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Not found", Status: http.StatusNotFound})
}

// RequestLogger writes one line per request.
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start).Round(time.Microsecond),
			"ip", c.ClientIP(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("http", kv...)
		case status >= http.StatusBadRequest:
			logger.Warn("http", kv...)
		default:
			logger.Info("http", kv...)
		}
	}
}

// bindError reports a gin binding failure as a validation error.
func bindError(c *gin.Context, err error) {
	_ = c.Error(dto.BindError(err))
}
