package handlers

import (
	"net/http"
	"time"

	"todoapp/internal/dto"

	"github.com/gin-gonic/gin"
)

// InfoHandler serves the unauthenticated service endpoints.
type InfoHandler struct {
	env     string
	version string
	started time.Time
	now     func() time.Time
}

func NewInfoHandler(env, version string) *InfoHandler {
	return &InfoHandler{env: env, version: version, started: time.Now(), now: time.Now}
}

type healthResponse struct {
	Status    string        `json:"status"`
	Timestamp dto.Timestamp `json:"timestamp" swaggertype:"string" format:"date-time"`
	Uptime    int64         `json:"uptime"`
}

// Health godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  handlers.healthResponse
// @Router       /health [get]
func (h *InfoHandler) Health(c *gin.Context) {
	now := h.now()
	c.JSON(http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: dto.Timestamp{Time: now},
		Uptime:    int64(now.Sub(h.started) / time.Second),
	})
}

func (h *InfoHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Todo API",
		"version": h.version,
		"env":     h.env,
		"docs":    "/swagger/index.html",
		"openapi": "/swagger-doc.json",
		"health":  "/api/health",
		"api":     "/api",
	})
}

func (h *InfoHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": h.version})
}
