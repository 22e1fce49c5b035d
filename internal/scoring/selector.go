package scoring

import (
	"sort"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/rs/zerolog"
)

// Options parameterize portfolio selection.
type Options struct {
	// OutlierMinReturn is the annualized return an outlier must strictly
	// exceed to be eligible.
	OutlierMinReturn float64
}

// Selector builds one portfolio per investor profile.
type Selector struct {
	log zerolog.Logger
}

// NewSelector creates a new selector.
func NewSelector(log zerolog.Logger) *Selector {
	return &Selector{
		log: log.With().Str("component", "selector").Logger(),
	}
}

// Select draws the top-scoring members of every segment requested by the
// profile and weights the selection equally. A segment without eligible
// members is skipped with a warning. Nothing selected yields an empty,
// valid portfolio.
func (s *Selector) Select(assets []domain.ScoredAsset, profile domain.Profile, opts Options) domain.Portfolio {
	bySegment := make(map[domain.SegmentLabel][]domain.ScoredAsset)
	for _, a := range assets {
		bySegment[a.Segment] = append(bySegment[a.Segment], a)
	}

	segments := make([]domain.SegmentLabel, 0, len(profile.Distribution))
	for seg := range profile.Distribution {
		segments = append(segments, seg)
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i] < segments[j] })

	portfolio := domain.Portfolio{Profile: profile.Name}
	for _, seg := range segments {
		want := profile.Distribution[seg]
		if want <= 0 {
			continue
		}

		eligible := eligibleMembers(bySegment[seg], seg, opts)
		if len(eligible) == 0 {
			s.log.Warn().
				Str("profile", profile.Name).
				Int("segment", int(seg)).
				Msg("No eligible assets in segment, skipping")
			continue
		}
		Rank(eligible)

		take := min(want, len(eligible))
		if take < want {
			s.log.Debug().
				Str("profile", profile.Name).
				Int("segment", int(seg)).
				Int("requested", want).
				Int("available", take).
				Msg("Segment has fewer members than requested")
		}
		for _, a := range eligible[:take] {
			portfolio.Holdings = append(portfolio.Holdings, domain.Holding{
				Ticker:      a.Ticker(),
				Segment:     a.Segment,
				SegmentName: a.SegmentName,
				Score:       a.Score,
				Features:    a.Features,
			})
		}
	}

	ApplyEqualWeights(&portfolio)

	if portfolio.Empty() {
		s.log.Warn().Str("profile", profile.Name).Msg("Profile selected no assets")
	} else {
		s.log.Info().
			Str("profile", profile.Name).
			Int("holdings", len(portfolio.Holdings)).
			Msg("Built portfolio")
	}
	return portfolio
}

// SelectAll builds a portfolio for every profile, in profile order.
func (s *Selector) SelectAll(assets []domain.ScoredAsset, profiles []domain.Profile, opts Options) []domain.Portfolio {
	out := make([]domain.Portfolio, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, s.Select(assets, p, opts))
	}
	return out
}

func eligibleMembers(members []domain.ScoredAsset, seg domain.SegmentLabel, opts Options) []domain.ScoredAsset {
	out := make([]domain.ScoredAsset, 0, len(members))
	for _, a := range members {
		if seg == domain.OutlierLabel {
			ret := a.Features.AnnualizedReturn
			if !ret.Valid || ret.Value <= opts.OutlierMinReturn {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// ApplyEqualWeights sets every holding to 1/n.
func ApplyEqualWeights(p *domain.Portfolio) {
	if p.Empty() {
		return
	}
	w := 1.0 / float64(len(p.Holdings))
	for i := range p.Holdings {
		p.Holdings[i].Weight = w
	}
}

// ApplyWeights overwrites holding weights from a ticker map. Holdings missing
// from the map get zero weight.
func ApplyWeights(p *domain.Portfolio, weights map[string]float64) {
	for i := range p.Holdings {
		p.Holdings[i].Weight = weights[p.Holdings[i].Ticker]
	}
}
