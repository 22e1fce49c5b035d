package domain

// Distribution maps a segment to the number of assets to draw from it.
type Distribution map[SegmentLabel]int

// Profile is a named investor risk appetite.
type Profile struct {
	Name         string       `yaml:"name"`
	Description  string       `yaml:"description"`
	Distribution Distribution `yaml:"distribution"`
}

// Holding is one selected asset of a portfolio.
type Holding struct {
	Ticker      string       `msgpack:"ticker"`
	Segment     SegmentLabel `msgpack:"segment"`
	SegmentName string       `msgpack:"segment_name"`
	Weight      float64      `msgpack:"weight"`
	Score       float64      `msgpack:"score"`
	Features    FeatureRow   `msgpack:"features"`
}

// Portfolio is the selection made for one profile.
type Portfolio struct {
	Profile  string    `msgpack:"profile"`
	Holdings []Holding `msgpack:"holdings"`
}

// Empty reports whether nothing was selected.
func (p *Portfolio) Empty() bool {
	return len(p.Holdings) == 0
}

// Tickers returns the holding tickers in selection order.
func (p *Portfolio) Tickers() []string {
	out := make([]string, len(p.Holdings))
	for i, h := range p.Holdings {
		out[i] = h.Ticker
	}
	return out
}

// Weights returns ticker to weight.
func (p *Portfolio) Weights() map[string]float64 {
	out := make(map[string]float64, len(p.Holdings))
	for _, h := range p.Holdings {
		out[h.Ticker] += h.Weight
	}
	return out
}

// TotalWeight sums holding weights.
func (p *Portfolio) TotalWeight() float64 {
	total := 0.0
	for _, h := range p.Holdings {
		total += h.Weight
	}
	return total
}
