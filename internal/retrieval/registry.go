// Package retrieval wires the configured retrieval strategies for the
// server and CLI binaries.
package retrieval

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/literature-retrieval-service/internal/config"
	"github.com/helixir/literature-retrieval-service/internal/observability"
	"github.com/helixir/literature-retrieval-service/internal/papersources"
	"github.com/helixir/literature-retrieval-service/internal/papersources/arxiv"
	"github.com/helixir/literature-retrieval-service/internal/papersources/pubmed"
	"github.com/helixir/literature-retrieval-service/internal/papersources/remote"
)

// NewRegistry registers every strategy the configuration can support.
// The direct and arxiv strategies are always registered; the remote strategy
// only when a delegate base URL is configured. Each strategy gets its own transport, so
// NCBI spacing is shared by every direct call and by nothing else.
// The metrics parameter may be nil.
func NewRegistry(cfg *config.Config, metrics *observability.Metrics, logger zerolog.Logger) *papersources.Registry {
	registry := papersources.NewRegistry()

	// PubMed (direct).
	pmCfg := cfg.PubMed
	pmTransport := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Name:        pubmed.SourceName,
		Timeout:     pmCfg.Timeout,
		MinInterval: interval(pmCfg.MinRequestInterval),
		MaxRetries:  pmCfg.MaxRetries,
		RetryDelay:  pmCfg.RetryDelay,
		Metrics:     metrics,
	})
	registry.Register(pubmed.New(pubmed.Config{
		BaseURL:         pmCfg.BaseURL,
		APIKey:          pmCfg.APIKey,
		Tool:            pmCfg.Tool,
		Email:           pmCfg.Email,
		Sort:            pmCfg.Sort,
		MaxResultsLimit: cfg.Retrieval.MaxResultsLimit,
	}, pmTransport, metrics, pubmed.WithLogger(logger.With().Str("strategy", papersources.StrategyDirect).Logger())))
	logger.Debug().
		Str("base_url", pmCfg.BaseURL).
		Dur("min_request_interval", pmTransport.MinInterval()).
		Bool("api_key", pmCfg.APIKey != "").
		Msg("registered retrieval strategy: direct")

	// arXiv.
	axCfg := cfg.ArXiv
	axTransport := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Name:        arxiv.SourceName,
		Timeout:     axCfg.Timeout,
		MinInterval: interval(axCfg.MinRequestInterval),
		Metrics:     metrics,
	})
	registry.Register(arxiv.New(arxiv.Config{
		BaseURL:         axCfg.BaseURL,
		Sort:            axCfg.Sort,
		MaxResultsLimit: cfg.Retrieval.MaxResultsLimit,
	}, axTransport, metrics, arxiv.WithLogger(logger.With().Str("strategy", papersources.StrategyArXiv).Logger())))
	logger.Debug().
		Str("base_url", axCfg.BaseURL).
		Dur("min_request_interval", axTransport.MinInterval()).
		Msg("registered retrieval strategy: arxiv")

	// Remote delegate.
	if cfg.Remote.BaseURL != "" {
		rmCfg := cfg.Remote
		rmTransport := papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Name:        remote.SourceName,
			Timeout:     rmCfg.Timeout,
			MinInterval: interval(rmCfg.MinRequestInterval),
			Metrics:     metrics,
		})
		registry.Register(remote.New(remote.Config{BaseURL: rmCfg.BaseURL}, rmTransport, metrics,
			remote.WithLogger(logger.With().Str("strategy", papersources.StrategyRemote).Logger())))
		logger.Debug().
			Str("base_url", rmCfg.BaseURL).
			Msg("registered retrieval strategy: remote")
	}

	return registry
}

// Select builds the registry and returns the strategy named by
// retrieval.strategy.
func Select(cfg *config.Config, metrics *observability.Metrics, logger zerolog.Logger) (papersources.Retriever, error) {
	retriever, err := NewRegistry(cfg, metrics, logger).Select(cfg.Retrieval.Strategy)
	if err != nil {
		return nil, fmt.Errorf("select retrieval strategy: %w", err)
	}
	return retriever, nil
}

// interval converts a configured spacing to the transport convention.
// A non-positive configured value disables spacing.
func interval(d time.Duration) time.Duration {
	if d <= 0 {
		return -1
	}
	return d
}
