package handlers

import (
	"errors"
	"net/http"

	"todoapp/internal/auth"
	dom "todoapp/internal/domain"
	"todoapp/internal/dto"
	"todoapp/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles login, register, logout and token issuing.
type AuthHandler struct {
	sessions     *auth.Store
	tokens       *auth.TokenIssuer
	userSvc      *service.UserService
	secureCookie bool
}

// NewAuthHandler returns a new AuthHandler. tokens may be nil, which disables POST /auth/token.
func NewAuthHandler(sessions *auth.Store, tokens *auth.TokenIssuer, userSvc *service.UserService, secureCookie bool) *AuthHandler {
	return &AuthHandler{sessions: sessions, tokens: tokens, userSvc: userSvc, secureCookie: secureCookie}
}

// Login godoc
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Credentials"
// @Success      200   {object}  dto.DataResponse[dto.SessionResponse]
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	user, err := h.userSvc.ValidateCredentials(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !h.startSession(c, user.ID) {
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse[dto.SessionResponse]{Data: sessionResponse(user)})
}

// Register godoc
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "Credentials"
// @Success      201   {object}  dto.DataResponse[dto.SessionResponse]
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		_ = c.Error(err)
		return
	}
	user, err := h.userSvc.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			_ = c.Error(dto.NewValidationError("username: is required"))
			return
		}
		_ = c.Error(err)
		return
	}
	if !h.startSession(c, user.ID) {
		return
	}
	c.JSON(http.StatusCreated, dto.DataResponse[dto.SessionResponse]{Data: sessionResponse(user)})
}

// Logout godoc
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, err := c.Cookie(auth.SessionCookieName)
	if err == nil && sessionID != "" {
		if err := h.sessions.Delete(c.Request.Context(), sessionID); err != nil {
			_ = c.Error(err)
			return
		}
	}
	h.setCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

// Session godoc
// @Summary      Current session
// @Description  data is null for anonymous callers.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.DataResponse[dto.SessionResponse]
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	switch id := auth.IdentityFrom(c).(type) {
	case auth.Authenticated:
		user, err := h.userSvc.GetByID(c.Request.Context(), id.UserID)
		if err != nil {
			_ = c.Error(err)
			return
		}
		resp := sessionResponse(user)
		c.JSON(http.StatusOK, dto.DataResponse[*dto.SessionResponse]{Data: &resp})
	default:
		c.JSON(http.StatusOK, dto.DataResponse[*dto.SessionResponse]{})
	}
}

// Token godoc
// @Summary      Issue a bearer token for API clients
// @Tags         auth
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  dto.DataResponse[dto.TokenResponse]
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	if h.tokens == nil {
		NotFound(c)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	token, exp, err := h.tokens.Issue(userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse[dto.TokenResponse]{
		Data: dto.TokenResponse{Token: token, ExpiresAt: dto.Timestamp{Time: exp}},
	})
}

func (h *AuthHandler) startSession(c *gin.Context, userID string) bool {
	sessionID, err := h.sessions.Create(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return false
	}
	h.setCookie(c, sessionID, int(h.sessions.TTL().Seconds()))
	return true
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookieName, value, maxAge, "/", "", h.secureCookie, true)
}

func sessionResponse(u dom.User) dto.SessionResponse {
	return dto.SessionResponse{User: dto.UserResponse{ID: u.ID, Username: u.Username}}
}
