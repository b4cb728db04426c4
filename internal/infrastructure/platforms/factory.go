package platforms

import (
	"fmt"
	"sync"
	"time"

	"profitpulse-sync-core/internal/domain"
	"profitpulse-sync-core/internal/ports"

	"github.com/rs/zerolog"
)

// requestsPerSecond is the client-side ceiling per platform, set below each
// provider's published bucket so polling never rides the 429 edge.
var requestsPerSecond = map[domain.Platform]float64{
	domain.PlatformShopify:  2,
	domain.PlatformMeta:     5,
	domain.PlatformTikTok:   5,
	domain.PlatformSnapchat: 5,
}

// Factory builds platform clients around shared per-platform transports, so
// every client for a platform rides the same rate limiter and circuit
// breaker regardless of which integration it serves.
type Factory struct {
	timeout time.Duration
	logger  zerolog.Logger

	mu         sync.Mutex
	transports map[domain.Platform]*transport
}

func NewFactory(timeout time.Duration, logger zerolog.Logger) *Factory {
	return &Factory{
		timeout:    timeout,
		logger:     logger,
		transports: make(map[domain.Platform]*transport),
	}
}

// ClientFor binds a client variant to an integration's decrypted access
// token. Platforms without a poll client (webhook-only sources like Salla)
// return domain.ErrUnsupportedPlatform; callers treat that as "skip", not as
// a failure.
func (f *Factory) ClientFor(integration *domain.Integration, accessToken string) (ports.PlatformClient, error) {
	switch integration.Platform {
	case domain.PlatformShopify:
		shop := integration.Metadata["shop"]
		if shop == "" {
			shop = integration.AccountID
		}
		return NewShopifyClient(shop, accessToken, f.transportFor(domain.PlatformShopify), f.logger), nil
	case domain.PlatformMeta:
		return NewMetaClient(integration.AccountID, accessToken, f.transportFor(domain.PlatformMeta), f.logger), nil
	case domain.PlatformTikTok:
		return NewTikTokClient(integration.AccountID, accessToken, f.transportFor(domain.PlatformTikTok), f.logger), nil
	case domain.PlatformSnapchat:
		return NewSnapchatClient(integration.AccountID, accessToken, f.transportFor(domain.PlatformSnapchat), f.logger), nil
	case domain.PlatformGoogle:
		return NewGoogleClient(integration.AccountID, f.logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedPlatform, integration.Platform)
	}
}

func (f *Factory) transportFor(p domain.Platform) *transport {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t, ok := f.transports[p]; ok {
		return t
	}
	rps, ok := requestsPerSecond[p]
	if !ok {
		rps = 5
	}
	t := newTransport(string(p), f.timeout, rps, f.logger)
	f.transports[p] = t
	return t
}
