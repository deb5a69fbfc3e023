package gateway

import (
	"context"
	"time"

	"starforge/internal/config"
)

// NewFetcherFromConfig creates the SRD reference client.
func NewFetcherFromConfig(cfg config.GatewayConfig) *SRDClient {
	return NewSRDClient(cfg.SRDBaseURL, time.Duration(cfg.TimeoutSeconds)*time.Second, cfg.MaxRetries)
}

// NewGeneratorFromConfig creates the AI text generator.
func NewGeneratorFromConfig(ctx context.Context, cfg config.GatewayConfig, secrets config.Secrets) (*GeminiGenerator, error) {
	return NewGeminiGenerator(ctx, secrets.GeminiAPIKey, cfg.Model, cfg.MaxRetries)
}
