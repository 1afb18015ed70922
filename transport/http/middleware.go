package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/learnchain/core"
	"github.com/layer-3/learnchain/service"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// SessionCookie carries the signed session token.
const SessionCookie = "learnchain_session"

const sessionKey = "session"

// AuthGate only lets requests with a live session reach the handlers behind
// it. Browsers are sent back to the root page, API callers get a 401.
func AuthGate(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := sessions.Resolve(c.Request.Context(), sessionToken(c))
		if err != nil {
			logger := zerolog.Ctx(c.Request.Context())
			if !sessionRejected(err) {
				logger.Error().Err(err).Msg("failed to load session")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": service.MsgGeneric})
				return
			}

			logger.Debug().Err(err).Msg("no session")
			if wantsHTML(c.Request) {
				c.Redirect(http.StatusFound, "/")
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": service.Describe(err), "redirect": "/"})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// RequestLogger attaches logger to every request context and logs the
// outcome of each request.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()

		ctx := logger.With().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Logger().WithContext(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		event := zerolog.Ctx(ctx).Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = zerolog.Ctx(ctx).Error()
		}
		event.Int("status", c.Writer.Status()).
			Dur("duration", time.Since(started)).
			Msg("http request")
	}
}

// CORS lets browser front ends served from origins call the gateway with
// the session cookie.
func CORS(origins []string) gin.HandlerFunc {
	middleware := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return func(c *gin.Context) {
		middleware.HandlerFunc(c.Writer, c.Request)
		// Preflights are fully answered by the cors handler.
		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.Abort()
			return
		}
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func sessionRejected(err error) bool {
	return errors.Is(err, core.ErrSessionNotFound) ||
		errors.Is(err, core.ErrInvalidToken) ||
		errors.Is(err, core.ErrTokenExpired)
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func currentSession(c *gin.Context) *core.Session {
	return c.MustGet(sessionKey).(*core.Session)
}
