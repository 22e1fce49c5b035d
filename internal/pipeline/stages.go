// Package pipeline orders the ingestion, feature, segmentation, portfolio
// and report stages and hands their outputs to each other through snapshots.
package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Stage is a pipeline step number.
type Stage int

const (
	StageIngest Stage = iota + 1
	StageFeatures
	StageSegmentation
	StagePortfolio
	StageReports
)

var stageNames = map[Stage]string{
	StageIngest:       "ingest",
	StageFeatures:     "features",
	StageSegmentation: "segmentation",
	StagePortfolio:    "portfolio",
	StageReports:      "reports",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage_%d", int(s))
}

// AllStages returns stages 1 through 5.
func AllStages() []Stage {
	return []Stage{StageIngest, StageFeatures, StageSegmentation, StagePortfolio, StageReports}
}

// RetrainStages recomputes everything downstream of ingestion.
func RetrainStages() []Stage {
	return []Stage{StageFeatures, StageSegmentation, StagePortfolio, StageReports}
}

// ParseStages accepts "all", "retrain", stage numbers or names, and ranges
// such as "2-4", separated by commas. The result is sorted and deduplicated.
func ParseStages(expr string) ([]Stage, error) {
	expr = strings.TrimSpace(strings.ToLower(expr))
	switch expr {
	case "", "all":
		return AllStages(), nil
	case "retrain":
		return RetrainStages(), nil
	}

	seen := make(map[Stage]bool)
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			from, err := parseStage(lo)
			if err != nil {
				return nil, err
			}
			to, err := parseStage(hi)
			if err != nil {
				return nil, err
			}
			if from > to {
				return nil, fmt.Errorf("invalid stage range %q", part)
			}
			for s := from; s <= to; s++ {
				seen[s] = true
			}
			continue
		}
		s, err := parseStage(part)
		if err != nil {
			return nil, err
		}
		seen[s] = true
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("no stages in %q", expr)
	}

	out := make([]Stage, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func parseStage(s string) (Stage, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := stageNames[Stage(n)]; ok {
			return Stage(n), nil
		}
		return 0, fmt.Errorf("stage %d out of range 1-%d", n, len(stageNames))
	}
	for stage, name := range stageNames {
		if name == s {
			return stage, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", s)
}
