package adapters

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smg_backend/internal/feature/stocks/domain"
	"smg_backend/internal/feature/stocks/domain/entity"
	"smg_backend/internal/feature/stocks/usecase"
)

// pgLockNotAvailable is the SQLSTATE raised by FOR UPDATE NOWAIT on a locked row.
const pgLockNotAvailable = "55P03"

// stockRepository is the gorm implementation of the stock persistence layer.
// Every price mutation runs as one transaction holding the ticker's row lock.
type stockRepository struct {
	db    *gorm.DB
	locks *tickerLocks
	now   func() time.Time
}

var _ usecase.StockRepository = (*stockRepository)(nil)

// NewStockRepository creates a stock repository backed by db.
func NewStockRepository(db *gorm.DB) *stockRepository {
	return &stockRepository{db: db, locks: newTickerLocks(), now: time.Now}
}

// Create inserts a new stock together with its initial price event.
func (r *stockRepository) Create(ctx context.Context, s *entity.Stock) error {
	now := r.now()
	s.CreatedAt = now
	s.UpdatedAt = now

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&StockModel{}).Where("ticker = ?", s.Ticker).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrTickerExists
		}
		if err := tx.Create(stockModelFromEntity(s)).Error; err != nil {
			return err
		}
		return tx.Create(&PriceEventModel{
			Ticker:     s.Ticker,
			Price:      s.Price,
			ChangeType: string(entity.ChangeInitial),
			CreatedAt:  now,
		}).Error
	})
}

// FindByTicker returns the stock for ticker or domain.ErrStockNotFound.
func (r *stockRepository) FindByTicker(ctx context.Context, ticker string) (*entity.Stock, error) {
	var m StockModel
	if err := r.db.WithContext(ctx).Where("ticker = ?", ticker).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStockNotFound
		}
		return nil, err
	}
	s := m.toEntity()
	return &s, nil
}

// List returns stocks in the requested order. limit <= 0 means no limit.
func (r *stockRepository) List(ctx context.Context, order entity.ListOrder, limit int) ([]entity.Stock, error) {
	q := r.db.WithContext(ctx).Model(&StockModel{})
	switch order {
	case entity.OrderRank:
		q = q.Order("rank IS NULL").Order("rank ASC")
	case entity.OrderRankDesc:
		q = q.Order("rank IS NULL").Order("rank DESC")
	case entity.OrderChangeRank:
		q = q.Order("change_rank IS NULL").Order("change_rank ASC")
	case entity.OrderChangeRankDesc:
		q = q.Order("change_rank IS NULL").Order("change_rank DESC")
	case entity.OrderCreatedAt:
		q = q.Order("created_at ASC")
	case entity.OrderCreatedAtDesc:
		q = q.Order("created_at DESC")
	default:
		q = q.Order("ticker ASC")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.find(q)
}

// ListAll returns every stock, active or not, ordered by ticker.
func (r *stockRepository) ListAll(ctx context.Context) ([]entity.Stock, error) {
	return r.find(r.db.WithContext(ctx).Model(&StockModel{}).Order("ticker ASC"))
}

// ListActive returns the stocks that take part in ticks and rankings.
func (r *stockRepository) ListActive(ctx context.Context) ([]entity.Stock, error) {
	return r.find(r.db.WithContext(ctx).Model(&StockModel{}).Where("is_active = ?", true).Order("ticker ASC"))
}

func (r *stockRepository) find(q *gorm.DB) ([]entity.Stock, error) {
	var rows []StockModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Stock, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out, nil
}

// Mutate applies fn to the locked stock row and commits the returned price
// together with one price event. It waits for concurrent mutations of the
// same ticker to finish.
func (r *stockRepository) Mutate(ctx context.Context, ticker string, change entity.ChangeType, fn usecase.MutateFunc) (*entity.Stock, error) {
	unlock := r.locks.lock(ticker)
	defer unlock()
	return r.mutate(ctx, ticker, change, fn, clause.Locking{Strength: "UPDATE"})
}

// TryMutate is Mutate without waiting: if the ticker is being mutated
// elsewhere it returns domain.ErrLockContention immediately.
func (r *stockRepository) TryMutate(ctx context.Context, ticker string, change entity.ChangeType, fn usecase.MutateFunc) (*entity.Stock, error) {
	unlock, ok := r.locks.tryLock(ticker)
	if !ok {
		return nil, domain.ErrLockContention
	}
	defer unlock()
	return r.mutate(ctx, ticker, change, fn, clause.Locking{Strength: "UPDATE", Options: "NOWAIT"})
}

func (r *stockRepository) mutate(ctx context.Context, ticker string, change entity.ChangeType, fn usecase.MutateFunc, lock clause.Locking) (*entity.Stock, error) {
	var out entity.Stock
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := lockStock(tx, ticker, lock)
		if err != nil {
			return err
		}

		price, err := fn(&s)
		if err != nil {
			return err
		}
		if !(price > 0) || math.IsInf(price, 0) {
			return domain.ErrInvalidPrice
		}

		now := r.now()
		s.ApplyPrice(price, now)
		if err := tx.Model(&StockModel{}).Where("ticker = ?", ticker).Updates(map[string]any{
			"price":      s.Price,
			"max_price":  s.MaxPrice,
			"min_price":  s.MinPrice,
			"updated_at": now,
		}).Error; err != nil {
			return err
		}
		if err := tx.Create(&PriceEventModel{
			Ticker:     ticker,
			Price:      s.Price,
			ChangeType: string(change),
			CreatedAt:  now,
		}).Error; err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// OpenSession resets the reference price and session extremes of ticker to
// its current price under the ticker's lock.
func (r *stockRepository) OpenSession(ctx context.Context, ticker string) (*entity.Stock, error) {
	unlock := r.locks.lock(ticker)
	defer unlock()

	var out entity.Stock
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := lockStock(tx, ticker, clause.Locking{Strength: "UPDATE"})
		if err != nil {
			return err
		}
		s.OpenSession(r.now())
		if err := tx.Model(&StockModel{}).Where("ticker = ?", ticker).Updates(map[string]any{
			"reference_price":    s.ReferencePrice,
			"reference_price_at": s.ReferenceAt,
			"max_price":          s.MaxPrice,
			"min_price":          s.MinPrice,
			"updated_at":         s.UpdatedAt,
		}).Error; err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetActive toggles whether ticker takes part in ticks and rankings.
// Price history is kept either way.
func (r *stockRepository) SetActive(ctx context.Context, ticker string, active bool) (*entity.Stock, error) {
	res := r.db.WithContext(ctx).Model(&StockModel{}).Where("ticker = ?", ticker).Updates(map[string]any{
		"is_active":  active,
		"updated_at": r.now(),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrStockNotFound
	}
	return r.FindByTicker(ctx, ticker)
}

// UpdateRankings writes the rank columns of a whole ranking pass in one
// transaction. Stocks missing from rankings lose their current ranks.
// Price columns are left untouched.
func (r *stockRepository) UpdateRankings(ctx context.Context, rankings []entity.Ranking) error {
	tickers := make([]string, 0, len(rankings))
	for _, rk := range rankings {
		tickers = append(tickers, rk.Ticker)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unranked := tx.Model(&StockModel{}).Where("(rank IS NOT NULL OR change_rank IS NOT NULL)")
		if len(tickers) > 0 {
			unranked = unranked.Where("ticker NOT IN ?", tickers)
		}
		if err := unranked.Updates(map[string]any{"rank": nil, "change_rank": nil}).Error; err != nil {
			return fmt.Errorf("clear unranked stocks: %w", err)
		}
		for _, rk := range rankings {
			if err := tx.Model(&StockModel{}).Where("ticker = ?", rk.Ticker).Updates(map[string]any{
				"rank":                 rk.Rank,
				"previous_rank":        rk.PreviousRank,
				"change_rank":          rk.ChangeRank,
				"previous_change_rank": rk.PreviousChangeRank,
			}).Error; err != nil {
				return fmt.Errorf("update ranking of %s: %w", rk.Ticker, err)
			}
		}
		return nil
	})
}

func lockStock(tx *gorm.DB, ticker string, lock clause.Locking) (entity.Stock, error) {
	var m StockModel
	if err := tx.Clauses(lock).Where("ticker = ?", ticker).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Stock{}, domain.ErrStockNotFound
		}
		if isLockNotAvailable(err) {
			return entity.Stock{}, domain.ErrLockContention
		}
		return entity.Stock{}, err
	}
	return m.toEntity(), nil
}

func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable
}
