package router

import (
	"time"

	"ai-persona-chat/backend/ai"
	"ai-persona-chat/backend/internal/api"
	"ai-persona-chat/backend/internal/scheduler"
	"ai-persona-chat/backend/internal/service"
	"ai-persona-chat/backend/internal/voice"
	"ai-persona-chat/backend/internal/ws"
	"ai-persona-chat/backend/pkg/config"
	"ai-persona-chat/backend/pkg/errors"
	"ai-persona-chat/backend/pkg/health"
	"ai-persona-chat/backend/pkg/logger"
	"ai-persona-chat/backend/pkg/middleware"
	"ai-persona-chat/backend/shared/observability"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Track server start time for uptime calculations
var startTime = time.Now()

// Dependencies carries everything the routes need.
type Dependencies struct {
	Personas  *service.PersonaService
	Conv      *service.ConversationService
	Analysis  *service.AnalysisService
	Scheduler *scheduler.Scheduler
	Gateway   *ai.Gateway
	Speech    *ai.SpeechService
	Images    *ai.ImageService
	Selector  *voice.Selector
	Hub       *ws.Hub
	Health    *health.Checker
	Logger    *logger.Logger
	Config    *config.Config
}

// Router is the main router for the application
type Router struct {
	Engine *gin.Engine
	deps   Dependencies
}

// New builds the gin engine with the standard middleware chain.
func New(deps Dependencies) *Router {
	logger.SetGlobal(deps.Logger)

	if deps.Config.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(logger.Middleware(deps.Logger))
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(corsMiddleware())

	return &Router{Engine: engine, deps: deps}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	personaHandler := api.NewPersonaHandler(r.deps.Personas, r.deps.Conv, r.deps.Scheduler, r.deps.Gateway)
	messageHandler := api.NewMessageHandler(r.deps.Personas, r.deps.Conv, r.deps.Scheduler)
	analysisHandler := api.NewAnalysisHandler(r.deps.Analysis)
	voiceHandler := api.NewVoiceHandler(r.deps.Personas, r.deps.Selector)
	speechHandler := api.NewSpeechHandler(r.deps.Speech, r.deps.Personas)
	imageHandler := api.NewImageHandler(r.deps.Images)

	// Model calls are the expensive path, so only sends and generation are
	// rate limited.
	limiterOpts := middleware.DefaultRateLimiterOptions()
	limiterOpts.Limit = rate.Limit(r.deps.Config.Security.RateLimit)
	limiterOpts.Burst = r.deps.Config.Security.RateLimitBurst
	rateLimiter := middleware.NewRateLimiter(r.deps.Logger, limiterOpts)
	limited := rateLimiter.Middleware()

	v1 := r.Engine.Group("/api/v1")
	{
		personas := v1.Group("/personas")
		{
			personas.GET("", personaHandler.ListPersonas)
			personas.POST("", personaHandler.CreatePersona)
			personas.POST("/generate", limited, personaHandler.GeneratePersona)
			personas.GET("/:id", personaHandler.GetPersona)
			personas.PUT("/:id", personaHandler.UpdatePersona)
			personas.DELETE("/:id", personaHandler.DeletePersona)

			personas.GET("/:id/messages", messageHandler.GetMessages)
			personas.POST("/:id/messages", limited, messageHandler.SendMessage)
			personas.PUT("/:id/mode", messageHandler.SetMode)
			personas.POST("/:id/activate", messageHandler.Activate)
			personas.POST("/:id/deactivate", messageHandler.Deactivate)

			personas.POST("/:id/analysis", limited, analysisHandler.Analyze)
		}

		v1.POST("/voices/select", voiceHandler.SelectVoice)

		speech := v1.Group("/speech")
		{
			speech.GET("/capabilities", speechHandler.Capabilities)
			speech.POST("/tts", limited, speechHandler.TextToSpeech)
			speech.POST("/transcriptions", limited, speechHandler.Transcribe)
		}

		v1.POST("/images/generate", limited, imageHandler.Generate)
	}

	r.Engine.GET("/ws", r.deps.Hub.HandleConnection)
	r.Engine.GET("/health", gin.WrapF(r.deps.Health.Handler()))
	r.Engine.GET("/metrics", gin.WrapH(observability.MetricsHandler()))
	r.Engine.GET("/uptime", func(c *gin.Context) {
		c.JSON(200, gin.H{"uptime": time.Since(startTime).String()})
	})
}

// CORS allows the browser client on another origin, including the headers
// WebSocket upgrades need.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-CSRF-Token, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
