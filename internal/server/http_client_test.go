package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/any-hub/img-edge/internal/config"
)

func TestNewOriginClientUsesConfigTimeout(t *testing.T) {
	cfg := &config.Config{
		Global: config.GlobalConfig{
			OriginTimeout: config.Duration(45 * time.Second),
		},
	}

	client := NewOriginClient(cfg)
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", client.Transport)
	}
	if transport.ResponseHeaderTimeout != 45*time.Second {
		t.Fatalf("expected header timeout 45s, got %s", transport.ResponseHeaderTimeout)
	}
	if client.Timeout != 0 {
		t.Fatalf("client timeout should be left to the caller context, got %s", client.Timeout)
	}
}

func TestNewOriginClientDefaultsTimeout(t *testing.T) {
	client := NewOriginClient(nil)
	transport := client.Transport.(*http.Transport)
	if transport.ResponseHeaderTimeout != 30*time.Second {
		t.Fatalf("expected default 30s, got %s", transport.ResponseHeaderTimeout)
	}
}

func TestNewOriginClientDoesNotShareTransport(t *testing.T) {
	a := NewOriginClient(nil).Transport.(*http.Transport)
	b := NewOriginClient(nil).Transport.(*http.Transport)
	if a == b || a == defaultTransport {
		t.Fatalf("expected cloned transports")
	}
}
