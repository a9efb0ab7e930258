package http

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/CodeRoom/internal/adapters/signal"
	"github.com/dkeye/CodeRoom/internal/app/orch"
	"github.com/dkeye/CodeRoom/internal/config"
	"github.com/dkeye/CodeRoom/internal/domain"
)

const Banner = "Backend API Running..."

type runBody struct {
	Language domain.Language `json:"language" binding:"required"`
	Code     string          `json:"code" binding:"required"`
}

// runHandler executes code outside any room and answers with the result.
func runHandler(o *orch.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body runBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Language and code are required."})
			return
		}
		res := o.Exec.Run(c.Request.Context(), "", body.Code, body.Language)
		if res.Failed {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to execute code.", "output": res.Output, "stderr": res.Stderr})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// OriginChecker returns the websocket handshake check for the same
// allow-list CORS uses. Requests without an Origin header are not from a
// browser and pass.
func OriginChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := strings.TrimRight(r.Header.Get("Origin"), "/")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

func corsMiddleware(allowed []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: len(allowed) > 0,
		MaxAge:           12 * time.Hour,
	}
	if len(allowed) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowed
	}
	return cors.New(cfg)
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	allowed := cfg.AllowedOrigins()
	r.Use(corsMiddleware(allowed))

	ctrl := signal.NewSignalWSController(orch, signal.Options{
		ReadLimit:   cfg.ReadLimit,
		PingPeriod:  cfg.PingPeriod,
		SendBuffer:  cfg.SendBuffer,
		CheckOrigin: OriginChecker(allowed),
		RunLimiter:  signal.NewRoomRateLimiter(cfg.Exec.RateLimit, cfg.Exec.RateWindow),
	})

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, Banner)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/run", runHandler(orch))

	log.Info().Str("module", "adapters.http").Strs("origins", allowed).Msg("router setup")

	api := r.Group("/api")

	api.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	api.POST("/run", runHandler(orch))

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, orch.Rooms.List())
	})

	api.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"connections": orch.Registry.Count(),
			"rooms":       orch.Rooms.Count(),
		})
	})

	api.GET("/ws", func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
