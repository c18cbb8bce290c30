// Package idempotency stores replayable responses in Redis keyed by the
// client's Idempotency-Key.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const keyPrefix = "sneaker:idempotency:"

// ErrUnavailable is returned while the breaker is open.
var ErrUnavailable = errors.New("idempotency store unavailable")

// Record is a captured response.
type Record struct {
	Status      int               `json:"status"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestHash string            `json:"request_hash"`
}

func NewRecord(status int, body []byte, contentType, requestHash string) Record {
	rec := Record{
		Status:      status,
		Body:        base64.StdEncoding.EncodeToString(body),
		RequestHash: requestHash,
	}
	if contentType != "" {
		rec.Headers = map[string]string{"Content-Type": contentType}
	}
	return rec
}

func (r Record) DecodedBody() ([]byte, error) {
	return base64.StdEncoding.DecodeString(r.Body)
}

type Store struct {
	client  redis.Cmdable
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker[any]
}

// NewStore wraps client in a breaker that opens after five consecutive
// failures and lets one request through again after timeout.
func NewStore(client redis.Cmdable, ttl time.Duration, log zerolog.Logger) *Store {
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "idempotency-redis",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("breaker state changed")
		},
	})
	return &Store{client: client, ttl: ttl, breaker: breaker}
}

// Key scopes a client key to the caller and route.
func (s *Store) Key(scope, id string) string {
	return keyPrefix + HashBody([]byte(scope)) + ":" + id
}

// Lookup returns the stored record for key, or nil when none exists.
func (s *Store) Lookup(ctx context.Context, key string) (*Record, error) {
	raw, err := s.breaker.Execute(func() (any, error) {
		return s.client.Get(ctx, key).Result()
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, wrap(err, "get")
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw.(string)), &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &rec, nil
}

// Save stores rec unless a record already exists for key. It reports
// whether rec was written.
func (s *Store) Save(ctx context.Context, key string, rec Record) (bool, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("encode idempotency record: %w", err)
	}
	ok, err := s.breaker.Execute(func() (any, error) {
		return s.client.SetNX(ctx, key, payload, s.ttl).Result()
	})
	if err != nil {
		return false, wrap(err, "setnx")
	}
	return ok.(bool), nil
}

// HashBody fingerprints a request body.
func HashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func wrap(err error, op string) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	return fmt.Errorf("redis %s: %w", op, err)
}
