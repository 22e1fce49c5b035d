package domain

import (
	"fmt"
	"strings"
)

// FillMethod selects how missing prices are imputed during ingestion.
type FillMethod string

const (
	FillForward     FillMethod = "ffill"
	FillBackward    FillMethod = "bfill"
	FillInterpolate FillMethod = "interpolate"
	FillDrop        FillMethod = "drop"
)

// ParseFillMethod parses a configured fill method.
func ParseFillMethod(s string) (FillMethod, error) {
	switch m := FillMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case FillForward, FillBackward, FillInterpolate, FillDrop:
		return m, nil
	}
	return "", fmt.Errorf("unknown fill method %q", s)
}

// ClusterMethod selects the segmentation algorithm.
type ClusterMethod string

const (
	// ClusterHybrid flags density outliers first, then partitions the rest.
	ClusterHybrid        ClusterMethod = "hybrid"
	ClusterKMeans        ClusterMethod = "kmeans"
	ClusterAgglomerative ClusterMethod = "agglomerative"
)

// ParseClusterMethod parses a configured clustering method.
func ParseClusterMethod(s string) (ClusterMethod, error) {
	switch m := ClusterMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case ClusterHybrid, ClusterKMeans, ClusterAgglomerative:
		return m, nil
	}
	return "", fmt.Errorf("unknown cluster method %q", s)
}

// Linkage is the inter-cluster distance used by agglomerative clustering.
type Linkage string

const (
	LinkageSingle   Linkage = "single"
	LinkageComplete Linkage = "complete"
	LinkageAverage  Linkage = "average"
)

// ParseLinkage parses a configured linkage.
func ParseLinkage(s string) (Linkage, error) {
	switch l := Linkage(strings.ToLower(strings.TrimSpace(s))); l {
	case LinkageSingle, LinkageComplete, LinkageAverage:
		return l, nil
	}
	return "", fmt.Errorf("unknown linkage %q", s)
}

// WeightingScheme selects how selected assets are weighted.
type WeightingScheme string

const (
	WeightingEqual     WeightingScheme = "equal"
	WeightingMaxSharpe WeightingScheme = "max_sharpe"
	WeightingHRP       WeightingScheme = "hrp"
)

// ParseWeightingScheme parses a weighting scheme name.
func ParseWeightingScheme(s string) (WeightingScheme, error) {
	switch w := WeightingScheme(strings.ToLower(strings.TrimSpace(s))); w {
	case WeightingEqual, WeightingMaxSharpe, WeightingHRP:
		return w, nil
	}
	return "", fmt.Errorf("unknown weighting scheme %q", s)
}

// RebalanceFrequency is the period of the rebalancing backtest variant.
type RebalanceFrequency string

const (
	RebalanceMonthly   RebalanceFrequency = "monthly"
	RebalanceQuarterly RebalanceFrequency = "quarterly"
)

// ParseRebalanceFrequency parses a rebalance frequency.
func ParseRebalanceFrequency(s string) (RebalanceFrequency, error) {
	switch f := RebalanceFrequency(strings.ToLower(strings.TrimSpace(s))); f {
	case RebalanceMonthly, RebalanceQuarterly:
		return f, nil
	}
	return "", fmt.Errorf("unknown rebalance frequency %q", s)
}
