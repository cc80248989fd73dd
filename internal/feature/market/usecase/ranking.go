package usecase

import (
	"sort"

	"smg_backend/internal/feature/stocks/domain/entity"
)

// ComputeRankings ranks stocks by price and by percentage change, both
// descending, as dense 1..N permutations. Ties are broken by ticker
// ascending. Stocks without a reference price sort last in the change
// ranking. The current ranks of each stock become its previous ranks.
//
// The result is ordered by price rank.
func ComputeRankings(stocks []entity.Stock) []entity.Ranking {
	byPrice := make([]entity.Stock, len(stocks))
	copy(byPrice, stocks)
	sort.SliceStable(byPrice, func(i, j int) bool {
		a, b := byPrice[i], byPrice[j]
		if a.Price != b.Price {
			return a.Price > b.Price
		}
		return a.Ticker < b.Ticker
	})

	byChange := make([]entity.Stock, len(stocks))
	copy(byChange, stocks)
	sort.SliceStable(byChange, func(i, j int) bool {
		a, b := byChange[i], byChange[j]
		pa, oka := a.PercentageChange()
		pb, okb := b.PercentageChange()
		if oka != okb {
			return oka
		}
		if oka && pa != pb {
			return pa > pb
		}
		return a.Ticker < b.Ticker
	})
	changeRank := make(map[string]int, len(byChange))
	for i, s := range byChange {
		changeRank[s.Ticker] = i + 1
	}

	out := make([]entity.Ranking, 0, len(byPrice))
	for i, s := range byPrice {
		out = append(out, entity.Ranking{
			Ticker:             s.Ticker,
			Rank:               i + 1,
			PreviousRank:       s.Rank,
			ChangeRank:         changeRank[s.Ticker],
			PreviousChangeRank: s.ChangeRank,
		})
	}
	return out
}

// ApplyRankings copies rankings onto the matching stocks in place.
func ApplyRankings(stocks []entity.Stock, rankings []entity.Ranking) {
	idx := make(map[string]entity.Ranking, len(rankings))
	for _, r := range rankings {
		idx[r.Ticker] = r
	}
	for i := range stocks {
		r, ok := idx[stocks[i].Ticker]
		if !ok {
			continue
		}
		rank, changeRank := r.Rank, r.ChangeRank
		stocks[i].PreviousRank = r.PreviousRank
		stocks[i].PreviousChangeRank = r.PreviousChangeRank
		stocks[i].Rank = &rank
		stocks[i].ChangeRank = &changeRank
	}
}
