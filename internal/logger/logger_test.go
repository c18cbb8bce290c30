package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_TagsService(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New("api", "debug", "json", buf)

	log.Info().Str("order_id", "o-1").Msg("order.created")

	if !bytes.Contains(buf.Bytes(), []byte(`"service":"api"`)) {
		t.Fatalf("expected service field; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"order_id":"o-1"`)) {
		t.Fatalf("expected order_id field; entry=%s", buf.String())
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New("api", "warn", "json", buf)

	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %s", buf.String())
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected info for empty level, got %v", lvl)
	}
	if lvl := ParseLevel("bogus"); lvl != zerolog.InfoLevel {
		t.Fatalf("expected info for invalid level, got %v", lvl)
	}
	if lvl := ParseLevel(" DEBUG "); lvl != zerolog.DebugLevel {
		t.Fatalf("expected debug, got %v", lvl)
	}
}
