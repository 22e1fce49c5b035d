package optimization

import (
	"fmt"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/pkg/formulas"
	"github.com/rs/zerolog"
)

// Options parameterize Reweight.
type Options struct {
	Scheme        domain.WeightingScheme
	RiskFreeRate  float64
	Bounds        Bounds
	Linkage       domain.Linkage
	MaxPerAsset   float64
	MaxPerSegment float64
}

// Optimizer computes alternative weights for a selected portfolio from the
// training-window prices of its holdings.
type Optimizer struct {
	log zerolog.Logger
}

// NewOptimizer creates a new optimizer.
func NewOptimizer(log zerolog.Logger) *Optimizer {
	return &Optimizer{
		log: log.With().Str("component", "optimizer").Logger(),
	}
}

// Reweight returns ticker weights for p under the requested scheme, with the
// concentration caps applied afterwards. The equal scheme still gets the caps.
func (o *Optimizer) Reweight(p domain.Portfolio, prices *domain.PriceMatrix, opts Options) (map[string]float64, error) {
	if p.Empty() {
		return nil, fmt.Errorf("profile %s: %w", p.Profile, domain.ErrEmptyPortfolio)
	}
	tickers := p.Tickers()
	segments := make(map[string]domain.SegmentLabel, len(tickers))
	for _, h := range p.Holdings {
		segments[h.Ticker] = h.Segment
	}

	var raw []float64
	switch opts.Scheme {
	case domain.WeightingEqual, "":
		raw = make([]float64, len(tickers))
		for i := range raw {
			raw[i] = 1 / float64(len(tickers))
		}

	case domain.WeightingMaxSharpe, domain.WeightingHRP:
		rows, err := AlignedReturns(prices, tickers)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.Profile, err)
		}
		mu, cov, err := AnnualizedMoments(rows)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.Profile, err)
		}

		if opts.Scheme == domain.WeightingHRP {
			raw, err = HRP(cov, formulas.Linkage(opts.Linkage))
		} else {
			var stats SharpeStats
			raw, stats, err = MaxSharpe(mu, cov, opts.Bounds, opts.RiskFreeRate)
			if err == nil {
				o.log.Debug().
					Str("profile", p.Profile).
					Float64("return", stats.Return).
					Float64("volatility", stats.Volatility).
					Float64("sharpe", stats.Sharpe).
					Msg("Max-Sharpe allocation")
			}
		}
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.Profile, err)
		}

	default:
		return nil, fmt.Errorf("unknown weighting scheme %q", opts.Scheme)
	}

	weights := make(map[string]float64, len(tickers))
	for i, t := range tickers {
		weights[t] = raw[i]
	}
	weights = ApplyConcentrationRules(weights, segments, opts.MaxPerAsset, opts.MaxPerSegment)

	o.log.Info().
		Str("profile", p.Profile).
		Str("scheme", string(opts.Scheme)).
		Int("holdings", len(tickers)).
		Msg("Reweighted portfolio")
	return weights, nil
}
