package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/internal/reports"
	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// profileName guards the path segment used to build report file names.
var profileName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type tableResponse struct {
	Count int                 `json:"count"`
	Rows  []map[string]string `json:"rows"`
}

// handleHealth reports liveness with host CPU and RAM usage
// GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := s.getSystemStats()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"time":        time.Now().UTC(),
		"cpu_percent": cpuPercent,
		"ram_percent": ramPercent,
	})
}

// getSystemStats samples CPU over 100ms and the current memory usage
func (s *Server) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}
	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}
	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

// GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		s.writeError(w, http.StatusServiceUnavailable, "status unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, s.status.Status(time.Now()))
}

// GET /api/metadata
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.layout.APIMetadataJSON())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.writeError(w, http.StatusNotFound, "metadata not generated yet")
			return
		}
		s.log.Error().Err(err).Msg("Failed to read metadata")
		s.writeError(w, http.StatusInternalServerError, "failed to read metadata")
		return
	}
	var meta reports.RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		s.log.Error().Err(err).Msg("Failed to parse metadata")
		s.writeError(w, http.StatusInternalServerError, "failed to parse metadata")
		return
	}
	s.writeJSON(w, http.StatusOK, meta)
}

// GET /api/portfolios[?profile=name]
func (s *Server) handlePortfolios(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.readTable(w, s.layout.APIPortfolios())
	if !ok {
		return
	}
	if profile := r.URL.Query().Get("profile"); profile != "" {
		filtered := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			if row["profile"] == profile {
				filtered = append(filtered, row)
			}
		}
		if len(filtered) == 0 {
			s.writeError(w, http.StatusNotFound, "unknown profile "+profile)
			return
		}
		rows = filtered
	}
	s.writeJSON(w, http.StatusOK, tableResponse{Count: len(rows), Rows: rows})
}

// GET /api/segments
func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	s.serveTable(w, s.layout.APISegments())
}

// GET /api/summary
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.serveTable(w, s.layout.APIBacktestSummary())
}

// GET /api/backtests/{profile}
func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	profile := chi.URLParam(r, "profile")
	if !profileName.MatchString(profile) {
		s.writeError(w, http.StatusBadRequest, "invalid profile name")
		return
	}
	s.serveTable(w, s.layout.BacktestMetrics(profile))
}

// GET /api/equity/{profile}
func (s *Server) handleEquity(w http.ResponseWriter, r *http.Request) {
	profile := chi.URLParam(r, "profile")
	if !profileName.MatchString(profile) {
		s.writeError(w, http.StatusBadRequest, "invalid profile name")
		return
	}
	s.serveTable(w, s.layout.BacktestEquity(profile))
}

func (s *Server) serveTable(w http.ResponseWriter, path string) {
	rows, ok := s.readTable(w, path)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, tableResponse{Count: len(rows), Rows: rows})
}

// readTable loads a CSV output, writing the error response when it fails.
func (s *Server) readTable(w http.ResponseWriter, path string) ([]map[string]string, bool) {
	rows, err := reports.ReadCSV(path)
	if err != nil {
		if errors.Is(err, domain.ErrInputNotFound) {
			s.writeError(w, http.StatusNotFound, "report not generated yet")
			return nil, false
		}
		s.log.Error().Err(err).Str("file", path).Msg("Failed to read report")
		s.writeError(w, http.StatusInternalServerError, "failed to read report")
		return nil, false
	}
	return rows, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
