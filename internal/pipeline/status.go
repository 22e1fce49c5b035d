package pipeline

import (
	"os"
	"time"

	"github.com/aristath/clusterfolio/internal/artifacts"
)

// StaleAfter is the age beyond which stage outputs are reported stale.
const StaleAfter = 180 * 24 * time.Hour

// FileStatus describes one expected output file.
type FileStatus struct {
	Path    string    `json:"path"`
	Exists  bool      `json:"exists"`
	ModTime time.Time `json:"mod_time"`
}

// StageStatus summarizes the outputs of one stage.
type StageStatus struct {
	Stage    Stage        `json:"stage"`
	Name     string       `json:"name"`
	Files    []FileStatus `json:"files"`
	Complete bool         `json:"complete"`
	Stale    bool         `json:"stale"`
	// LastRun is the oldest output modification time.
	LastRun time.Time `json:"last_run"`
}

// expectedFiles lists the outputs a later stage or the server relies on.
func (p *Pipeline) expectedFiles(s Stage) []string {
	l := p.layout
	switch s {
	case StageIngest:
		return []string{p.store.Path(artifacts.PricesTrain), p.store.Path(artifacts.PricesTest), l.PricesTrain(), l.PricesTest()}
	case StageFeatures:
		return []string{p.store.Path(artifacts.Features), l.Features()}
	case StageSegmentation:
		return []string{p.store.Path(artifacts.Segments), l.Segments(), l.SegmentSummary(), l.SegmentationMeta()}
	case StagePortfolio:
		files := []string{p.store.Path(artifacts.Scored), p.store.Path(artifacts.Portfolios), p.store.Path(artifacts.Backtests)}
		for _, pr := range p.profiles {
			files = append(files, l.Portfolio(pr.Name), l.BacktestMetrics(pr.Name), l.BacktestEquity(pr.Name))
		}
		return files
	case StageReports:
		return []string{l.APIPortfolios(), l.APISegments(), l.APIBacktestSummary(), l.APIEquityCurves(), l.APIMetadataCSV(), l.APIMetadataJSON()}
	}
	return nil
}

// Status checks the outputs of every stage at now.
func (p *Pipeline) Status(now time.Time) []StageStatus {
	out := make([]StageStatus, 0, len(stageNames))
	for _, s := range AllStages() {
		st := StageStatus{Stage: s, Name: s.String(), Complete: true}
		for _, path := range p.expectedFiles(s) {
			fs := FileStatus{Path: path}
			if info, err := os.Stat(path); err == nil {
				fs.Exists = true
				fs.ModTime = info.ModTime()
				if st.LastRun.IsZero() || fs.ModTime.Before(st.LastRun) {
					st.LastRun = fs.ModTime
				}
			} else {
				st.Complete = false
			}
			st.Files = append(st.Files, fs)
		}
		st.Stale = st.Complete && now.Sub(st.LastRun) > StaleAfter
		out = append(out, st)
	}
	return out
}

// LogStatus writes the status of every stage to the pipeline logger.
func (p *Pipeline) LogStatus(now time.Time) []StageStatus {
	statuses := p.Status(now)
	for _, st := range statuses {
		event := p.log.Info()
		if !st.Complete || st.Stale {
			event = p.log.Warn()
		}
		event.
			Int("stage", int(st.Stage)).
			Str("name", st.Name).
			Bool("complete", st.Complete).
			Bool("stale", st.Stale).
			Time("last_run", st.LastRun).
			Msg("Stage status")
	}
	return statuses
}
