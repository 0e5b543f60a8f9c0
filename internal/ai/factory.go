package ai

import (
	"fmt"

	"github.com/mnardelli/audimed/internal/ai/mock"
	"github.com/mnardelli/audimed/internal/ai/openai"
	"github.com/mnardelli/audimed/internal/config"
	"github.com/mnardelli/audimed/pkg/models"
)

// NewExtractor constructs the appropriate AI provider based on config.
// Called once at server startup.
func NewExtractor(cfg config.AIConfig) (models.Extractor, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewProvider(cfg), nil
	case "mock":
		return mock.NewMockExtractor(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of openai, mock", cfg.Provider)
	}
}
