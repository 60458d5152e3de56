package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/capwatch/capwatch/internal/models"
)

// PeerGroupServiceImpl implements PeerGroupService over a fixed set of
// configured groups.
type PeerGroupServiceImpl struct {
	comparisons ComparisonService
	groups      []models.PeerGroup
}

func NewPeerGroupService(comparisons ComparisonService, groups []models.PeerGroup) PeerGroupService {
	return &PeerGroupServiceImpl{comparisons: comparisons, groups: groups}
}

// Compare runs one universe-wide comparison and slices it per group, so
// every group shares the same rate map and snapshot pair. Group names match
// case-insensitively.
func (s *PeerGroupServiceImpl) Compare(ctx context.Context, fromDate, toDate time.Time, refCurrency string, groupFilter []string) ([]*models.PeerGroupResult, error) {
	selected, err := s.selectGroups(groupFilter)
	if err != nil {
		return nil, err
	}

	report, err := s.comparisons.Compare(ctx, fromDate, toDate, refCurrency)
	if err != nil {
		return nil, err
	}

	results := make([]*models.PeerGroupResult, 0, len(selected))
	for _, group := range selected {
		results = append(results, buildGroupResult(group, report))
	}

	// Groups ranked against each other by total change
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalChangePct.GreaterThan(results[j].TotalChangePct)
	})
	return results, nil
}

func (s *PeerGroupServiceImpl) selectGroups(filter []string) ([]models.PeerGroup, error) {
	if len(filter) == 0 {
		return s.groups, nil
	}

	wanted := make(map[string]bool, len(filter))
	for _, name := range filter {
		wanted[strings.ToLower(name)] = true
	}

	var selected []models.PeerGroup
	for _, group := range s.groups {
		if wanted[strings.ToLower(group.Name)] {
			selected = append(selected, group)
		}
	}
	if len(selected) == 0 {
		names := make([]string, 0, len(s.groups))
		for _, g := range s.groups {
			names = append(names, g.Name)
		}
		return nil, fmt.Errorf("no peer group matches %v, available: %s", filter, strings.Join(names, ", "))
	}
	return selected, nil
}

// buildGroupResult filters the universe rows down to the group's tickers
// and ranks them within the group by to-side value. A group with no rows is
// still a valid, empty result.
func buildGroupResult(group models.PeerGroup, report *models.ComparisonReport) *models.PeerGroupResult {
	result := &models.PeerGroupResult{Group: group}

	var rows []*models.ComparisonRow
	for _, row := range report.Rows {
		if !group.Contains(row.Ticker) {
			continue
		}
		rows = append(rows, row)
		if row.FromValue != nil {
			result.TotalFrom = result.TotalFrom.Add(*row.FromValue)
		}
		if row.ToValue != nil {
			result.TotalTo = result.TotalTo.Add(*row.ToValue)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		vi, vj := rows[i].ToValue, rows[j].ToValue
		switch {
		case vi != nil && vj != nil:
			if !vi.Equal(*vj) {
				return vi.GreaterThan(*vj)
			}
			return rows[i].Ticker < rows[j].Ticker
		case vi != nil:
			return true
		case vj != nil:
			return false
		default:
			return rows[i].Ticker < rows[j].Ticker
		}
	})
	for i, row := range rows {
		result.Members = append(result.Members, &models.PeerMember{GroupRank: i + 1, Row: row})
	}

	if result.TotalFrom.IsPositive() {
		result.TotalChangePct = result.TotalTo.Sub(result.TotalFrom).
			Div(result.TotalFrom).Mul(hundred)
	}
	return result
}
