/**
 * HTTP Handlers.
 *
 * One handler per spec.md §6 route. Validation errors (bad date
 * params) return 400; persistence errors surfaced mid-request return
 * 500; a static scan that outruns its global timeout returns 504 --
 * per spec.md §7's error-handling design.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package api

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/netsentry/netsentry/internal/models"
	"github.com/netsentry/netsentry/internal/report"
	"github.com/netsentry/netsentry/internal/scheduler"
	"github.com/netsentry/netsentry/internal/staticscan"
	"github.com/netsentry/netsentry/internal/storage"
)

func writeJSONStatus(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSON(w http.ResponseWriter, body any) {
	writeJSONStatus(w, http.StatusOK, body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// startRequest mirrors POST /scan/dynamic/start's JSON body. Duration
// and Interval are seconds; ApprovedMacs left absent (nil) from the
// request body means "no override" per scheduler.AnalyzerFactory's
// contract.
type startRequest struct {
	Interface    string   `json:"interface"`
	Duration     *int     `json:"duration"`
	ApprovedMacs []string `json:"approved_macs"`
	Interval     *int     `json:"interval"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // a malformed/empty body just yields zero values
	}

	opts := scheduler.StartOptions{
		Interface:    req.Interface,
		ApprovedMacs: req.ApprovedMacs,
	}
	if req.Duration != nil {
		opts.Duration = time.Duration(*req.Duration) * time.Second
	}
	if req.Interval != nil {
		opts.Interval = time.Duration(*req.Interval) * time.Second
	}

	status := s.scheduler.Start(opts)
	writeJSON(w, map[string]string{"status": status})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	status := s.scheduler.Stop()
	writeJSON(w, map[string]string{"status": status})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	recent := s.store.GetRecent()
	writeJSON(w, report.Build(recent))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.HistoryFilter{
		Start:    q.Get("start"),
		End:      q.Get("end"),
		Device:   q.Get("device"),
		Protocol: q.Get("protocol"),
	}

	results, err := s.store.FetchHistory(filter)
	if err != nil {
		s.log.Error("api: fetch history failed", zap.Error(err))
		writeJSONStatus(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if results == nil {
		results = []models.Finding{}
	}
	writeJSON(w, map[string]any{"results": results})
}

var dateOnly = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func (s *Server) handleDNSHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")

	if !dateOnly.MatchString(start) || !dateOnly.MatchString(end) {
		writeJSONStatus(w, http.StatusBadRequest, map[string]string{"error": "start and end must be YYYY-MM-DD"})
		return
	}

	rows, err := s.store.FetchDNSHistory(start, end)
	if err != nil {
		s.log.Error("api: fetch dns history failed", zap.Error(err))
		writeJSONStatus(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if rows == nil {
		rows = []models.DnsRow{}
	}
	writeJSON(w, map[string]any{"history": rows})
}

func (s *Server) handleStaticScan(w http.ResponseWriter, r *http.Request) {
	wantReport := r.URL.Query().Get("report") == "true"

	ctx, cancel := s.staticScanContext(r.Context())
	defer cancel()

	resultCh := make(chan staticscan.Report, 1)
	go func() {
		resultCh <- s.orchestrator.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		writeJSONStatus(w, http.StatusGatewayTimeout, map[string]string{"status": "timeout"})
	case rep := <-resultCh:
		body := map[string]any{
			"status":     "ok",
			"findings":   rep.Findings,
			"risk_score": rep.RiskScore,
		}
		if wantReport {
			// PDF rendering is an external collaborator (spec.md §1);
			// the injection seam is this field, left empty here.
			body["report_path"] = ""
		}
		writeJSON(w, body)
	}
}
