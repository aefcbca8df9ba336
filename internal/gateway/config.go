package gateway

import (
	"time"

	platformconfig "github.com/example/feedview/internal/platform/config"
)

// Config holds the gateway's own settings on top of the shared app config.
type Config struct {
	// FeedAPIBaseURL is the upstream social API root, e.g. http://feed-api:3000.
	FeedAPIBaseURL string
	// JWTSecret verifies caller bearer tokens. Tokens are minted by the
	// identity provider; the gateway only validates them.
	JWTSecret string
	// NATSURL enables interaction analytics when set. Empty disables NATS.
	NATSURL string
	// SessionTTL is how long an idle view session keeps its tree.
	SessionTTL time.Duration
}

// LoadConfig reads gateway settings from the environment.
func LoadConfig() (Config, error) {
	base, err := platformconfig.Require("FEED_API_BASE_URL")
	if err != nil {
		return Config{}, err
	}
	secret, err := platformconfig.Require("JWT_SECRET")
	if err != nil {
		return Config{}, err
	}
	return Config{
		FeedAPIBaseURL: base,
		JWTSecret:      secret,
		NATSURL:        platformconfig.String("NATS_URL", ""),
		SessionTTL:     platformconfig.Duration("SESSION_TTL", 15*time.Minute),
	}, nil
}
