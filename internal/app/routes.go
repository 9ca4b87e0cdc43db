package app

import (
	"net/http"
	"time"

	"todoapp/internal/auth"
	"todoapp/internal/cache"
	"todoapp/internal/config"
	"todoapp/internal/dto"
	"todoapp/internal/handlers"
	"todoapp/internal/repo"
	"todoapp/internal/service"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Dependencies are the stores the router is built on.
type Dependencies struct {
	Todos repo.TodoRepo
	Users repo.UserRepo
	Redis *redis.Client
}

// NewRouter returns the engine with middleware and every route registered.
func NewRouter(cfg config.Config, deps Dependencies, logger *log.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			logger.Error("panic", "method", c.Request.Method, "path", c.Request.URL.Path, "recovered", recovered)
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:  "Internal server error",
				Status: http.StatusInternalServerError,
			})
		}),
		handlers.RequestLogger(logger),
		cors.New(corsConfig(cfg.HTTP)),
		handlers.ErrorHandler(logger),
	)
	r.NoRoute(handlers.NotFound)

	Setup(r, cfg, deps, logger)
	return r
}

func corsConfig(cfg config.HTTPConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "Cookie"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}
	if cfg.AllowAnyOrigin() || len(cfg.CORSOrigins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.CORSOrigins
	c.AllowCredentials = true
	return c
}

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, deps Dependencies, logger *log.Logger) {
	info := handlers.NewInfoHandler(cfg.App.Env, cfg.App.Version)
	r.GET("/", info.Root)
	r.GET("/version", info.Version)
	r.GET("/swagger-doc.json", swaggerDocHandler)
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	api := r.Group("/api")
	api.GET("/health", info.Health)

	sessions := auth.NewStore(deps.Redis, cfg.Auth.SessionTTL.Duration())
	tokens := auth.NewTokenIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL.Duration())
	resolver := auth.NewResolver(sessions, tokens)
	requireSession := auth.RequireSession(resolver)

	userSvc := service.NewUserService(deps.Users, cfg.Auth.BcryptCost)
	authHandler := handlers.NewAuthHandler(sessions, tokens, userSvc, cfg.HTTP.SecureCookie)
	registerAuthRoutes(api, authHandler, requireSession, auth.OptionalSession(resolver))

	todoCache := cache.NewTodoCache(deps.Redis, cfg.Redis.DefaultTTL.Duration())
	todoSvc := service.NewTodoService(deps.Todos, todoCache, logger.WithPrefix("todos"))
	todoHandler := handlers.NewTodoHandler(todoSvc)
	registerTodoRoutes(api.Group("", requireSession), todoHandler)
}

func swaggerDocHandler(c *gin.Context) {
	doc, err := swag.ReadDoc("swagger")
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}

func registerTodoRoutes(api *gin.RouterGroup, h *handlers.TodoHandler) {
	api.GET("/todos", h.List)
	api.POST("/todos", h.Create)
	api.GET("/todos/search", h.Search)
	api.GET("/todos/overdue", h.Overdue)
	api.GET("/todos/:id", h.GetByID)
	api.PATCH("/todos/:id", h.Update)
	api.PATCH("/todos/:id/toggle", h.Toggle)
	api.DELETE("/todos/:id", h.Delete)
}

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler, required, optional gin.HandlerFunc) {
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/session", optional, h.Session)
	api.POST("/auth/token", required, h.Token)
}
