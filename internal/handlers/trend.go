package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/capwatch/capwatch/internal/services"
)

type TrendHandler struct {
	trends     services.TrendService
	defaultRef string
}

func NewTrendHandler(trends services.TrendService, defaultRef string) *TrendHandler {
	return &TrendHandler{trends: trends, defaultRef: defaultRef}
}

// HandleTrends handles GET /api/trends
// @Summary Multi-date trend analysis
// @Description Per-ticker series and metrics over explicit snapshot dates
// @Tags trends
// @Produce json
// @Param dates query string true "Comma-separated dates (YYYY-MM-DD)"
// @Param currency query string false "Reference currency (default USD)"
// @Success 200 {object} models.TrendReport
// @Failure 400 {string} string "Invalid or insufficient dates"
// @Router /trends [get]
func (h *TrendHandler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var dates []time.Time
	for _, s := range strings.Split(r.URL.Query().Get("dates"), ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			http.Error(w, "Invalid date: "+s, http.StatusBadRequest)
			return
		}
		dates = append(dates, parsed)
	}
	if len(dates) < 2 {
		http.Error(w, "At least two dates are required", http.StatusBadRequest)
		return
	}

	report, err := h.trends.AnalyzeTrends(r.Context(), dates, h.refCurrency(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(report)
}

// HandleYoY handles GET /api/trends/yoy
// @Summary Year-over-year comparison
// @Description Compare the anchor date against the same date in prior years
// @Tags trends
// @Produce json
// @Param anchor query string false "Anchor date (YYYY-MM-DD, default today)"
// @Param years query int false "Years back (default 1)"
// @Param currency query string false "Reference currency (default USD)"
// @Success 200 {object} models.TrendReport
// @Router /trends/yoy [get]
func (h *TrendHandler) HandleYoY(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	anchor, years, ok := parseAnchorCount(w, r, "years", 1)
	if !ok {
		return
	}

	report, err := h.trends.CompareYoY(r.Context(), anchor, years, h.refCurrency(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(report)
}

// HandleQoQ handles GET /api/trends/qoq
// @Summary Quarter-over-quarter comparison
// @Description Compare quarter-end snapshots walking back from the anchor
// @Tags trends
// @Produce json
// @Param anchor query string false "Anchor date (YYYY-MM-DD, default today)"
// @Param quarters query int false "Quarters back (default 4)"
// @Param currency query string false "Reference currency (default USD)"
// @Success 200 {object} models.TrendReport
// @Router /trends/qoq [get]
func (h *TrendHandler) HandleQoQ(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	anchor, quarters, ok := parseAnchorCount(w, r, "quarters", 4)
	if !ok {
		return
	}

	report, err := h.trends.CompareQoQ(r.Context(), anchor, quarters, h.refCurrency(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(report)
}

func (h *TrendHandler) refCurrency(r *http.Request) string {
	if c := r.URL.Query().Get("currency"); c != "" {
		return strings.ToUpper(c)
	}
	return h.defaultRef
}

func parseAnchorCount(w http.ResponseWriter, r *http.Request, countParam string, defaultCount int) (time.Time, int, bool) {
	anchor := time.Now().UTC()
	if s := r.URL.Query().Get("anchor"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			http.Error(w, "Invalid anchor date", http.StatusBadRequest)
			return time.Time{}, 0, false
		}
		anchor = parsed
	}

	count := defaultCount
	if s := r.URL.Query().Get(countParam); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			http.Error(w, "Invalid "+countParam+" parameter", http.StatusBadRequest)
			return time.Time{}, 0, false
		}
		count = n
	}
	return anchor, count, true
}
