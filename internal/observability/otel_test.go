package observability

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/config"
)

func TestSampleRatio(t *testing.T) {
	tests := map[float64]float64{-1: 0, 0: 0, 0.25: 0.25, 1: 1, 3: 1}
	for in, want := range tests {
		if got := SampleRatio(in); got != want {
			t.Fatalf("SampleRatio(%v): expected %v, got %v", in, want, got)
		}
	}
}

func TestInitOTelDisabled(t *testing.T) {
	shutdown := InitOTel(context.Background(), zerolog.Nop(), &config.Config{OTelEnabled: false}, "test")
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("expected no-op shutdown, got %v", err)
	}

	_, span := Tracer().Start(context.Background(), "noop")
	defer span.End()
	if span.SpanContext().IsSampled() {
		t.Fatal("expected no sampled spans without a provider")
	}
}
