package httpserver

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"sneakerstore/internal/domain"
	"sneakerstore/internal/idempotency"
)

const idempotencyHeader = "Idempotency-Key"

type idempotencyStore interface {
	Key(scope, id string) string
	Lookup(ctx context.Context, key string) (*idempotency.Record, error)
	Save(ctx context.Context, key string, rec idempotency.Record) (bool, error)
}

// idempotent replays the first response recorded for a caller's
// Idempotency-Key. Requests without the header, and every request while the
// store is failing, pass straight through.
func idempotent(store idempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := strings.TrimSpace(c.GetHeader(idempotencyHeader))
		if store == nil || clientKey == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			writeError(c, invalidBody(err))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		ctx := c.Request.Context()
		reqLog := zerolog.Ctx(ctx)
		requestHash := idempotency.HashBody(body)
		key := store.Key(strings.Join([]string{currentUser(c).ID, c.Request.Method, c.FullPath()}, "|"), clientKey)

		stored, err := store.Lookup(ctx, key)
		if err != nil {
			reqLog.Warn().Err(err).Msg("idempotency lookup failed")
			c.Next()
			return
		}
		if stored != nil {
			if stored.RequestHash != requestHash {
				writeError(c, domain.NewError(domain.CodeConflict, "idempotency key reused with different request body"))
				c.Abort()
				return
			}
			replay(c, stored)
			c.Abort()
			return
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		status := capture.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		rec := idempotency.NewRecord(status, capture.body.Bytes(), capture.Header().Get("Content-Type"), requestHash)
		if _, err := store.Save(ctx, key, rec); err != nil {
			reqLog.Warn().Err(err).Msg("idempotency save failed")
		}
	}
}

func replay(c *gin.Context, rec *idempotency.Record) {
	body, err := rec.DecodedBody()
	if err != nil {
		writeError(c, domain.WrapError(domain.CodeInternal, err, "decode stored response"))
		return
	}
	contentType := rec.Headers["Content-Type"]
	c.Header("Idempotent-Replayed", "true")
	c.Data(rec.Status, contentType, body)
}

type bodyCapture struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCapture) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
