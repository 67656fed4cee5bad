package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("returns the attached logger", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil)).With("request_id", "req-1")

		ctx := ContextWithLogger(context.Background(), logger)
		got := FromContext(ctx)
		if got == nil {
			t.Fatal("expected a logger from the context")
		}

		got.Info("probe")
		if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
			t.Fatalf("expected the attached logger's attributes, got %s", buf.String())
		}
	})

	t.Run("returns nil when nothing was attached", func(t *testing.T) {
		t.Parallel()

		if got := FromContext(context.Background()); got != nil {
			t.Fatalf("expected nil, got %v", got)
		}
	})

	t.Run("attaching nil is a no-op", func(t *testing.T) {
		t.Parallel()

		ctx := ContextWithLogger(context.Background(), nil)
		if got := FromContext(ctx); got != nil {
			t.Fatalf("expected nil, got %v", got)
		}
	})
}
