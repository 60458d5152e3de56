package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/capwatch/capwatch/internal/errors"
	"github.com/capwatch/capwatch/internal/models"
	"github.com/capwatch/capwatch/internal/services"
)

type ComparisonHandler struct {
	comparisons services.ComparisonService
	benchmark   services.BenchmarkService
	peerGroups  services.PeerGroupService
	defaultRef  string
}

func NewComparisonHandler(comparisons services.ComparisonService, benchmark services.BenchmarkService, peerGroups services.PeerGroupService, defaultRef string) *ComparisonHandler {
	return &ComparisonHandler{
		comparisons: comparisons,
		benchmark:   benchmark,
		peerGroups:  peerGroups,
		defaultRef:  defaultRef,
	}
}

// HandleComparison handles GET /api/comparison
// @Summary Compare two snapshot dates
// @Description Compare normalized market caps between two dates
// @Tags comparison
// @Produce json
// @Param from query string true "From date (YYYY-MM-DD)"
// @Param to query string true "To date (YYYY-MM-DD)"
// @Param currency query string false "Reference currency (default USD)"
// @Success 200 {object} models.ComparisonReport
// @Failure 400 {string} string "Invalid parameters"
// @Failure 404 {string} string "No snapshot for a requested date"
// @Router /comparison [get]
func (h *ComparisonHandler) HandleComparison(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	report, err := h.comparisons.Compare(r.Context(), from, to, h.refCurrency(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(report)
}

// HandleRolling handles GET /api/comparison/rolling
// @Summary Rolling-window comparison
// @Description Compare the snapshot a window of days before the anchor against the anchor
// @Tags comparison
// @Produce json
// @Param anchor query string false "Anchor date (YYYY-MM-DD, default today)"
// @Param days query int false "Window length in days (default 30)"
// @Param currency query string false "Reference currency (default USD)"
// @Success 200 {object} models.ComparisonReport
// @Failure 404 {string} string "No snapshot in the window"
// @Router /comparison/rolling [get]
func (h *ComparisonHandler) HandleRolling(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	anchor := time.Now().UTC()
	if s := r.URL.Query().Get("anchor"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			http.Error(w, "Invalid anchor date", http.StatusBadRequest)
			return
		}
		anchor = parsed
	}

	window := models.Rolling30
	if s := r.URL.Query().Get("days"); s != "" {
		days, err := strconv.Atoi(s)
		if err != nil || days <= 0 {
			http.Error(w, "Invalid days parameter", http.StatusBadRequest)
			return
		}
		window = models.CustomWindow(days)
	}

	report, err := h.comparisons.CompareRolling(r.Context(), anchor, window, h.refCurrency(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(report)
}

// HandleBenchmark handles GET /api/benchmark
// @Summary Compare tickers against the market benchmark
// @Description Per-ticker return relative to the total-market-cap proxy
// @Tags comparison
// @Produce json
// @Param from query string true "From date (YYYY-MM-DD)"
// @Param to query string true "To date (YYYY-MM-DD)"
// @Param currency query string false "Reference currency (default USD)"
// @Success 200 {object} models.BenchmarkReport
// @Router /benchmark [get]
func (h *ComparisonHandler) HandleBenchmark(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	report, err := h.benchmark.Compare(r.Context(), from, to, h.refCurrency(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(report)
}

// HandlePeerGroups handles GET /api/peer-groups
// @Summary Peer-group comparison
// @Description Compare tickers within named peer groups between two dates
// @Tags comparison
// @Produce json
// @Param from query string true "From date (YYYY-MM-DD)"
// @Param to query string true "To date (YYYY-MM-DD)"
// @Param groups query string false "Comma-separated group names (default all)"
// @Param currency query string false "Reference currency (default USD)"
// @Success 200 {array} models.PeerGroupResult
// @Router /peer-groups [get]
func (h *ComparisonHandler) HandlePeerGroups(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	var filter []string
	if s := r.URL.Query().Get("groups"); s != "" {
		for _, name := range strings.Split(s, ",") {
			if name = strings.TrimSpace(name); name != "" {
				filter = append(filter, name)
			}
		}
	}

	results, err := h.peerGroups.Compare(r.Context(), from, to, h.refCurrency(r), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(results)
}

func (h *ComparisonHandler) refCurrency(r *http.Request) string {
	if c := r.URL.Query().Get("currency"); c != "" {
		return strings.ToUpper(c)
	}
	return h.defaultRef
}

func parseDateRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "Invalid or missing from date", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "Invalid or missing to date", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// writeServiceError maps the fatal error taxonomy onto HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	var noSnap *apperrors.ErrNoSnapshot
	var noRates *apperrors.ErrNoRateData
	var insufficient *apperrors.ErrInsufficientDates
	switch {
	case errors.As(err, &noSnap):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &noRates):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &insufficient):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
