// Package natsconn is the shared NATS connection factory. Connections
// fail fast at startup so a misconfigured broker is caught before traffic
// arrives; the gateway treats NATS as optional and runs without it.
package natsconn

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/example/feedview/internal/platform/config"
)

// Options configures the NATS connection behaviour.
// Zero values fall back to env vars or built-in defaults.
type Options struct {
	URL           string
	MaxReconnects int           // default from NATS_MAX_RECONNECTS or 5
	ReconnectWait time.Duration // default from NATS_RECONNECT_WAIT or 2s
}

// Connect establishes a NATS connection with the configured retry policy.
func Connect(opts Options) (*nats.Conn, error) {
	if opts.URL == "" {
		opts.URL = config.String("NATS_URL", "nats://nats:4222")
	}
	if opts.MaxReconnects == 0 {
		opts.MaxReconnects = config.Int("NATS_MAX_RECONNECTS", 5)
	}
	if opts.ReconnectWait == 0 {
		opts.ReconnectWait = config.Duration("NATS_RECONNECT_WAIT", 2*time.Second)
	}

	nc, err := nats.Connect(opts.URL,
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.RetryOnFailedConnect(false),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s (max_reconnects=%d, wait=%s): %w",
			opts.URL, opts.MaxReconnects, opts.ReconnectWait, err)
	}
	return nc, nil
}
