package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sneakerstore/internal/domain"
	"sneakerstore/internal/metrics"
)

const (
	requestIDHeader = "X-Request-Id"
	userKey         = "user"
)

type authenticator interface {
	Authenticate(ctx context.Context, header string) (*domain.User, error)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Set(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger attaches a request-scoped logger to the request context and
// logs one line per request.
func requestLogger(log zerolog.Logger, m *metrics.Shop) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log.With().
			Str("request_id", c.GetString(requestIDHeader)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Logger()
		c.Request = c.Request.WithContext(reqLog.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start)
		m.HTTPRequest(c.Request.Method, c.FullPath(), status, elapsed)

		evt := reqLog.Info()
		if status >= 500 {
			evt = reqLog.Error()
		} else if status >= 400 {
			evt = reqLog.Warn()
		}
		evt.Int("status", status).Dur("duration", elapsed).Msg("request complete")
	}
}

// authMiddleware resolves the bearer token before any handler runs.
func authMiddleware(auth authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(userKey, user)
		ctx := zerolog.Ctx(c.Request.Context()).With().Str("user_id", user.ID).Logger().WithContext(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.User {
	if u, ok := c.Get(userKey); ok {
		if user, ok := u.(*domain.User); ok && user != nil {
			return *user
		}
	}
	return domain.User{}
}
