package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chat/internal/adapters/signal"
	"github.com/dkeye/Chat/internal/config"
	"github.com/dkeye/Chat/internal/domain"
)

const (
	sessionName = "ChatSessions"
	sessionKey  = "token"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func rateLimitErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(http.StatusTooManyRequests, "Too many requests. Try again in "+time.Until(info.ResetTime).String())
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	all := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			all = true
		}
	}
	if all {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// bearerToken resolves the credential of a websocket request: query string,
// then Authorization header, then the cookie session set by POST /api/session.
func bearerToken(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if t, ok := sessions.Default(c).Get(sessionKey).(string); ok {
		return t
	}
	return ""
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctrl *signal.SignalWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.CORS.Origins))

	if cfg.Limits.HTTPRPS > 0 {
		store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  time.Second,
			Limit: cfg.Limits.HTTPRPS,
		})
		r.Use(ratelimit.RateLimiter(store, &ratelimit.Options{
			ErrorHandler: rateLimitErrorHandler,
			KeyFunc:      keyFunc,
		}))
	}

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": len(ctrl.Orch.Rooms.List())})
	})

	api := r.Group("/api")

	api.POST("/session", func(c *gin.Context) {
		var body struct {
			Token string `json:"token"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.Token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
			return
		}
		user, err := ctrl.Auth.Authenticate(c.Request.Context(), body.Token)
		if err != nil {
			status := http.StatusUnauthorized
			if domain.CodeOf(err) == domain.CodeInternal {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": "invalid or expired token"})
			return
		}
		sess := sessions.Default(c)
		sess.Set(sessionKey, body.Token)
		if err := sess.Save(); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, user)
	})

	api.DELETE("/session", func(c *gin.Context) {
		sess := sessions.Default(c)
		sess.Clear()
		sess.Options(sessions.Options{Path: "/", MaxAge: -1})
		_ = sess.Save()
		c.Status(http.StatusNoContent)
	})

	api.GET("/ws", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("remote", c.ClientIP()).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c, bearerToken(c))
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
