package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings by building the adapter and
// pinging it once. Nothing it builds outlives the call.
type ConfigValidator struct {
	timeout time.Duration
}

// ValidatorOption configures a ConfigValidator.
type ValidatorOption func(*ConfigValidator)

// WithPingTimeout bounds each validation call. Non-positive values are ignored.
func WithPingTimeout(d time.Duration) ValidatorOption {
	return func(v *ConfigValidator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// NewConfigValidator creates a validator using the default ping timeout.
func NewConfigValidator(opts ...ValidatorOption) *ConfigValidator {
	v := &ConfigValidator{timeout: pingTimeout}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateEmbedding pings the embedding provider. Unconfigured settings pass.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	svc, err := CreateAndValidateEmbeddingService(ctx, config)
	if err != nil || svc == nil {
		return err
	}
	svc.Close()
	return nil
}

// ValidateLLM pings the LLM provider. Unconfigured settings pass.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	svc, err := CreateAndValidateLLMService(ctx, config)
	if err != nil || svc == nil {
		return err
	}
	svc.Close()
	return nil
}

// ValidateVectorIndex checks that the Weaviate instance is ready.
// Settings without a host pass.
func (v *ConfigValidator) ValidateVectorIndex(config *domain.VectorIndexSettings) error {
	if config == nil || config.Host == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	idx, err := CreateVectorIndex(ctx, config)
	if err != nil {
		return unreachable(domain.ErrVectorIndexUnavailable, err)
	}
	idx.Close()
	return nil
}
