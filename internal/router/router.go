package router

import (
	"time"

	"github.com/certquest/arena-backend/internal/config"
	"github.com/certquest/arena-backend/internal/handler"
	"github.com/certquest/arena-backend/internal/middleware"
	"github.com/certquest/arena-backend/internal/response"
	"github.com/certquest/arena-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Exam     *handler.ExamHandler
	Question *handler.QuestionHandler
	Session  *handler.SessionHandler
	WS       *handler.WSHandler
	Result   *handler.ResultHandler
	Package  *handler.PackageHandler
	Setting  *handler.SettingHandler
	System   *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// authLimiter guards the login and register endpoints; the caller owns it.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	authLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	// ─── 1. Auth Group (Rate Limited) ──────────────────────────────────
	auth := router.Group("/api/auth")
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/register", authLimiter.Middleware(), handlers.Auth.Register)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
	}

	// ─── 2. Public Catalog (Optional JWT, cacheable) ───────────────────
	// Anonymous visitors browse and take exams; a token links the attempt
	// to the account and unlocks admin views.
	api := router.Group("/api")
	api.Use(middleware.OptionalJWT(authService))

	catalog := api.Group("")
	catalog.Use(middleware.CacheControl(60))
	{
		catalog.GET("/simulados", handlers.Exam.ListExams)
		catalog.GET("/simulados/:id", handlers.Exam.GetExam)
		catalog.GET("/simulados/:id/questoes", handlers.Question.ListQuestions)
		catalog.GET("/pacotes", handlers.Package.ListPackages)
		catalog.GET("/pacotes/:id", handlers.Package.GetPackage)
		catalog.GET("/configuracoes", handlers.Setting.GetSettings)
		catalog.GET("/configuracoes/:key", handlers.Setting.GetSetting)
	}

	// ─── 3. Sessions & Results (Optional JWT) ──────────────────────────
	{
		api.POST("/simulados/:id/sessoes", handlers.Session.StartSession)
		api.GET("/sessoes/:id", handlers.Session.GetSession)
		api.POST("/sessoes/:id/respostas", handlers.Session.Answer)
		api.POST("/sessoes/:id/navegar", handlers.Session.Navigate)
		api.POST("/sessoes/:id/teclas", handlers.Session.PressKey)
		api.POST("/sessoes/:id/finalizar", handlers.Session.FinishSession)
		api.DELETE("/sessoes/:id", handlers.Session.AbandonSession)

		api.POST("/resultados", handlers.Result.SubmitResult)
		api.GET("/resultados/me", middleware.RequireJWT(authService), handlers.Result.ListMyResults)
		api.GET("/resultados/:id", handlers.Result.GetResult)
	}

	// ─── 4. WebSocket (token via ?token=) ──────────────────────────────
	ws := router.Group("/ws")
	ws.Use(middleware.OptionalJWT(authService))
	{
		ws.GET("/sessoes/:id", handlers.WS.SessionStream)
	}

	// ─── 5. Admin (JWT + role) ─────────────────────────────────────────
	admin := router.Group("/api")
	admin.Use(middleware.RequireJWT(authService), middleware.RequireAdmin())
	{
		admin.POST("/simulados", handlers.Exam.CreateExam)
		admin.PUT("/simulados/:id", handlers.Exam.UpdateExam)
		admin.DELETE("/simulados/:id", handlers.Exam.DeleteExam)
		admin.POST("/simulados/:id/questoes", handlers.Question.AddQuestion)
		admin.DELETE("/simulados/:id/questoes/:question_id", handlers.Question.DeleteQuestion)

		admin.POST("/pacotes", handlers.Package.CreatePackage)
		admin.PUT("/pacotes/:id", handlers.Package.UpdatePackage)
		admin.DELETE("/pacotes/:id", handlers.Package.DeletePackage)
		admin.POST("/pacotes/criar-automaticos", handlers.Package.AutoBundle)

		admin.PUT("/configuracoes", handlers.Setting.UpdateSettings)

		admin.GET("/admin/sistema/metricas", handlers.System.SystemMetricsSSE)
	}

	return router
}
