package models

import "github.com/shopspring/decimal"

// PeerGroup is a named set of tickers compared against each other
type PeerGroup struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tickers     []string `json:"tickers"`
}

// Contains reports whether the group lists the ticker
func (g *PeerGroup) Contains(ticker string) bool {
	for _, t := range g.Tickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// PeerMember is a comparison row with its rank inside the peer group
type PeerMember struct {
	GroupRank int            `json:"group_rank"`
	Row       *ComparisonRow `json:"row"`
}

// PeerGroupResult holds one group's members and aggregates. A group whose
// tickers are absent from both snapshots yields an empty Members slice,
// which is a valid result.
type PeerGroupResult struct {
	Group          PeerGroup       `json:"group"`
	Members        []*PeerMember   `json:"members"`
	TotalFrom      decimal.Decimal `json:"total_from"`
	TotalTo        decimal.Decimal `json:"total_to"`
	TotalChangePct decimal.Decimal `json:"total_change_pct"`
}
