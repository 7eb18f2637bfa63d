package routing

import (
	"errors"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// ProviderType represents the type of sequencing provider.
type ProviderType string

const (
	// ProviderTypeOSRM represents the OSRM trip API provider.
	ProviderTypeOSRM ProviderType = "osrm"
	// ProviderTypeGoogle represents the Google Directions provider.
	ProviderTypeGoogle ProviderType = "google"
)

// ProviderConfig holds configuration for creating a sequencing provider.
type ProviderConfig struct {
	Type      ProviderType // Type of provider to create
	APIKey    string       // API key (used by Google provider)
	RateLimit int          // Rate limit for requests per second (used by OSRM provider)
	Logger    *slog.Logger // Logger for the provider
}

// NewSequencer creates a sequencing provider based on the provided
// configuration. It applies the Factory pattern to decouple provider
// instantiation from the pipeline.
//
// Supported provider types:
// - "osrm": OSRM trip API (free, no API key required)
// - "google": Google Maps Directions API (requires API key)
//
// Returns an error if the provider type is unsupported or if provider
// creation fails.
func NewSequencer(config ProviderConfig) (Sequencer, error) {
	switch config.Type {
	case ProviderTypeOSRM:
		return newOSRMProvider(config)
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

func newOSRMProvider(config ProviderConfig) (Sequencer, error) {
	if config.RateLimit == 0 {
		config.RateLimit = 1
		config.Logger.Warn("Rate limit for OSRM API not set, set a default value", "value", config.RateLimit)
	}

	return NewOSRMProvider(config.RateLimit, config.Logger), nil
}

func newGoogleProvider(config ProviderConfig) (Sequencer, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	client, err := maps.NewClient(maps.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Logger), nil
}
