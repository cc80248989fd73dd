package entity

// Ranking is the outcome of one ranking pass for a single stock.
// Previous values are the ranks observed before the pass.
type Ranking struct {
	Ticker             string
	Rank               int
	PreviousRank       *int
	ChangeRank         int
	PreviousChangeRank *int
}

// ListOrder selects the ordering for stock listings.
type ListOrder string

const (
	OrderDefault        ListOrder = ""
	OrderRank           ListOrder = "rank"
	OrderRankDesc       ListOrder = "rank_desc"
	OrderChangeRank     ListOrder = "change_rank"
	OrderChangeRankDesc ListOrder = "change_rank_desc"
	OrderCreatedAt      ListOrder = "created_at"
	OrderCreatedAtDesc  ListOrder = "created_at_desc"
)

// Valid reports whether o is a known ordering.
func (o ListOrder) Valid() bool {
	switch o {
	case OrderDefault, OrderRank, OrderRankDesc, OrderChangeRank, OrderChangeRankDesc, OrderCreatedAt, OrderCreatedAtDesc:
		return true
	}
	return false
}
