package config

import "github.com/capwatch/capwatch/internal/models"

// PeerGroups returns the predefined peer groups. The slices are rebuilt on
// every call so callers can mutate their copy freely.
func PeerGroups() []models.PeerGroup {
	return []models.PeerGroup{
		{
			Name:        "Luxury",
			Description: "Global luxury houses",
			Tickers:     []string{"MC.PA", "RMS.PA", "CFR.SW", "KER.PA", "BRBY.L", "1913.HK"},
		},
		{
			Name:        "Sportswear",
			Description: "Athletic apparel and footwear brands",
			Tickers:     []string{"NKE", "ADS.DE", "PUM.DE", "LULU", "ANTA.HK", "UAA"},
		},
		{
			Name:        "Fast Fashion",
			Description: "High-street and value fashion retailers",
			Tickers:     []string{"ITX.MC", "HM-B.ST", "9983.T", "AEO", "GPS"},
		},
		{
			Name:        "Footwear",
			Description: "Footwear specialists",
			Tickers:     []string{"DECK", "SKX", "CROX", "BIRK", "ONON"},
		},
		{
			Name:        "E-commerce",
			Description: "Online fashion marketplaces",
			Tickers:     []string{"ZAL.DE", "BOO.L", "ASC.L", "RVLV", "MYT"},
		},
	}
}
