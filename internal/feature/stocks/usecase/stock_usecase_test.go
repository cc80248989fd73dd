package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smg_backend/internal/feature/stocks/domain"
	"smg_backend/internal/feature/stocks/domain/entity"
	"smg_backend/internal/feature/stocks/usecase"
)

// mockStockRepository はStockRepositoryインターフェースのモック実装です。
type mockStockRepository struct {
	CreateFunc         func(ctx context.Context, s *entity.Stock) error
	FindByTickerFunc   func(ctx context.Context, ticker string) (*entity.Stock, error)
	ListFunc           func(ctx context.Context, order entity.ListOrder, limit int) ([]entity.Stock, error)
	MutateFunc         func(ctx context.Context, ticker string, change entity.ChangeType, fn usecase.MutateFunc) (*entity.Stock, error)
	SetActiveFunc      func(ctx context.Context, ticker string, active bool) (*entity.Stock, error)
	UpdateRankingsFunc func(ctx context.Context, rankings []entity.Ranking) error
}

func (m *mockStockRepository) Create(ctx context.Context, s *entity.Stock) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, s)
	}
	return nil
}

func (m *mockStockRepository) FindByTicker(ctx context.Context, ticker string) (*entity.Stock, error) {
	if m.FindByTickerFunc != nil {
		return m.FindByTickerFunc(ctx, ticker)
	}
	return nil, domain.ErrStockNotFound
}

func (m *mockStockRepository) List(ctx context.Context, order entity.ListOrder, limit int) ([]entity.Stock, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, order, limit)
	}
	return nil, nil
}

func (m *mockStockRepository) ListAll(ctx context.Context) ([]entity.Stock, error) {
	return nil, nil
}

func (m *mockStockRepository) ListActive(ctx context.Context) ([]entity.Stock, error) {
	return nil, nil
}

func (m *mockStockRepository) Mutate(ctx context.Context, ticker string, change entity.ChangeType, fn usecase.MutateFunc) (*entity.Stock, error) {
	if m.MutateFunc != nil {
		return m.MutateFunc(ctx, ticker, change, fn)
	}
	return nil, nil
}

func (m *mockStockRepository) TryMutate(ctx context.Context, ticker string, change entity.ChangeType, fn usecase.MutateFunc) (*entity.Stock, error) {
	return m.Mutate(ctx, ticker, change, fn)
}

func (m *mockStockRepository) OpenSession(ctx context.Context, ticker string) (*entity.Stock, error) {
	return nil, nil
}

func (m *mockStockRepository) SetActive(ctx context.Context, ticker string, active bool) (*entity.Stock, error) {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, ticker, active)
	}
	return nil, nil
}

func (m *mockStockRepository) UpdateRankings(ctx context.Context, rankings []entity.Ranking) error {
	if m.UpdateRankingsFunc != nil {
		return m.UpdateRankingsFunc(ctx, rankings)
	}
	return nil
}

// mockHistoryRepository はHistoryRepositoryインターフェースのモック実装です。
type mockHistoryRepository struct {
	ListSnapshotsFunc   func(ctx context.Context, ticker string, limit int) ([]entity.StockSnapshot, error)
	ListPriceEventsFunc func(ctx context.Context, ticker string, limit int) ([]entity.PriceEvent, error)
}

func (m *mockHistoryRepository) AppendSnapshots(ctx context.Context, snapshots []entity.StockSnapshot) error {
	return nil
}

func (m *mockHistoryRepository) PruneSnapshots(ctx context.Context, ticker string, keep int) (int64, error) {
	return 0, nil
}

func (m *mockHistoryRepository) ListSnapshots(ctx context.Context, ticker string, limit int) ([]entity.StockSnapshot, error) {
	if m.ListSnapshotsFunc != nil {
		return m.ListSnapshotsFunc(ctx, ticker, limit)
	}
	return nil, nil
}

func (m *mockHistoryRepository) ListPriceEvents(ctx context.Context, ticker string, limit int) ([]entity.PriceEvent, error) {
	if m.ListPriceEventsFunc != nil {
		return m.ListPriceEventsFunc(ctx, ticker, limit)
	}
	return nil, nil
}

// mockPublisher は配信された銘柄を記録します。
type mockPublisher struct {
	published []entity.Stock
}

func (m *mockPublisher) PublishStock(s entity.Stock) {
	m.published = append(m.published, s)
}

func floatPtr(f float64) *float64 { return &f }

func TestNormalizeTicker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		expected string
		wantErr  bool
	}{
		{in: "abc", expected: "ABC"},
		{in: "  Bob1 ", expected: "BOB1"},
		{in: "ABCDEFGHIJ", expected: "ABCDEFGHIJ"},
		{in: "ABCDEFGHIJK", wantErr: true},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "A-B", wantErr: true},
		{in: "A B", wantErr: true},
		{in: "ÄBC", wantErr: true},
	}

	for _, tt := range tests {
		got, err := usecase.NormalizeTicker(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, domain.ErrInvalidTicker, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.expected, got)
	}
}

func TestStockUsecase_Create(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		in            usecase.CreateStockInput
		createErr     error
		expectedErr   error
		expectedPrice float64
		expectCreate  bool
	}{
		{
			name:          "success: default base price",
			in:            usecase.CreateStockInput{Ticker: " bob ", Title: " Bob "},
			expectedPrice: 1000,
			expectCreate:  true,
		},
		{
			name:          "success: explicit initial price",
			in:            usecase.CreateStockInput{Ticker: "ALICE", Title: "Alice", InitialPrice: floatPtr(250)},
			expectedPrice: 250,
			expectCreate:  true,
		},
		{
			name:        "failure: invalid ticker",
			in:          usecase.CreateStockInput{Ticker: "TOO-LONG-TICKER"},
			expectedErr: domain.ErrInvalidTicker,
		},
		{
			name:        "failure: zero initial price",
			in:          usecase.CreateStockInput{Ticker: "BOB", InitialPrice: floatPtr(0)},
			expectedErr: domain.ErrInvalidPrice,
		},
		{
			name:        "failure: negative initial price",
			in:          usecase.CreateStockInput{Ticker: "BOB", InitialPrice: floatPtr(-5)},
			expectedErr: domain.ErrInvalidPrice,
		},
		{
			name:         "failure: duplicate ticker",
			in:           usecase.CreateStockInput{Ticker: "BOB"},
			createErr:    domain.ErrTickerExists,
			expectedErr:  domain.ErrTickerExists,
			expectCreate: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var created *entity.Stock
			repo := &mockStockRepository{
				CreateFunc: func(ctx context.Context, s *entity.Stock) error {
					created = s
					if tt.createErr != nil {
						return tt.createErr
					}
					s.CreatedAt = createdAt
					return nil
				},
			}
			pub := &mockPublisher{}
			uc := usecase.NewStockUsecase(repo, &mockHistoryRepository{}, pub, 1000)

			got, err := uc.Create(context.Background(), tt.in)

			assert.Equal(t, tt.expectCreate, created != nil)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, got)
				assert.Empty(t, pub.published)
				return
			}

			require.NoError(t, err)
			assert.True(t, got.IsActive)
			assert.Equal(t, tt.expectedPrice, got.Price)
			assert.Equal(t, tt.expectedPrice, *got.ReferencePrice)
			assert.Equal(t, tt.expectedPrice, *got.MaxPrice)
			assert.Equal(t, tt.expectedPrice, *got.MinPrice)
			require.NotNil(t, got.ReferenceAt)
			assert.Equal(t, createdAt, *got.ReferenceAt)
			pct, ok := got.PercentageChange()
			assert.True(t, ok)
			assert.Zero(t, pct)
			require.Len(t, pub.published, 1)
		})
	}

	t.Run("ticker is normalized", func(t *testing.T) {
		t.Parallel()

		repo := &mockStockRepository{}
		uc := usecase.NewStockUsecase(repo, &mockHistoryRepository{}, nil, 1000)

		got, err := uc.Create(context.Background(), usecase.CreateStockInput{Ticker: " bob ", Title: " Bob "})
		require.NoError(t, err)
		assert.Equal(t, "BOB", got.Ticker)
		assert.Equal(t, "Bob", got.Title)
	})
}

func TestStockUsecase_SetPrice(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("db down")

	tests := []struct {
		name        string
		price       float64
		mutateErr   error
		inactive    bool
		expectedErr error
		expectCall  bool
	}{
		{name: "success", price: 42.5, expectCall: true},
		{name: "success: inactive stock can be corrected before reactivation", price: 55, inactive: true, expectCall: true},
		{name: "failure: zero price", price: 0, expectedErr: domain.ErrInvalidPrice},
		{name: "failure: negative price", price: -1, expectedErr: domain.ErrInvalidPrice},
		{name: "failure: unknown ticker", price: 10, mutateErr: domain.ErrStockNotFound, expectedErr: domain.ErrStockNotFound, expectCall: true},
		{name: "failure: repository error", price: 10, mutateErr: dbErr, expectedErr: dbErr, expectCall: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			repo := &mockStockRepository{
				MutateFunc: func(ctx context.Context, ticker string, change entity.ChangeType, fn usecase.MutateFunc) (*entity.Stock, error) {
					called = true
					assert.Equal(t, entity.ChangeAdmin, change)
					if tt.mutateErr != nil {
						return nil, tt.mutateErr
					}
					s := &entity.Stock{Ticker: ticker, Price: 100, IsActive: !tt.inactive}
					p, err := fn(s)
					require.NoError(t, err)
					s.ApplyPrice(p, time.Now())
					return s, nil
				},
			}
			pub := &mockPublisher{}
			uc := usecase.NewStockUsecase(repo, &mockHistoryRepository{}, pub, 1000)

			got, err := uc.SetPrice(context.Background(), "BOB", tt.price)

			assert.Equal(t, tt.expectCall, called)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Empty(t, pub.published)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.price, got.Price)
			assert.Len(t, pub.published, 1)
		})
	}
}

func TestStockUsecase_List_InvalidOrderFallsBack(t *testing.T) {
	t.Parallel()

	var gotOrder entity.ListOrder
	repo := &mockStockRepository{
		ListFunc: func(ctx context.Context, order entity.ListOrder, limit int) ([]entity.Stock, error) {
			gotOrder = order
			return []entity.Stock{{Ticker: "A"}}, nil
		},
	}
	uc := usecase.NewStockUsecase(repo, &mockHistoryRepository{}, nil, 1000)

	got, err := uc.List(context.Background(), entity.ListOrder("bogus"), 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, entity.OrderDefault, gotOrder)

	_, err = uc.List(context.Background(), entity.OrderChangeRankDesc, 5)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderChangeRankDesc, gotOrder)
}

func TestStockUsecase_History(t *testing.T) {
	t.Parallel()

	found := func(ctx context.Context, ticker string) (*entity.Stock, error) {
		if ticker == "BOB" {
			return &entity.Stock{Ticker: "BOB"}, nil
		}
		return nil, domain.ErrStockNotFound
	}

	tests := []struct {
		name          string
		ticker        string
		limit         int
		expectedLimit int
		expectedErr   error
	}{
		{name: "default limit", ticker: "BOB", limit: 0, expectedLimit: usecase.DefaultHistoryLimit},
		{name: "explicit limit", ticker: "BOB", limit: 7, expectedLimit: 7},
		{name: "limit is capped", ticker: "BOB", limit: 1000, expectedLimit: usecase.MaxHistoryLimit},
		{name: "unknown ticker", ticker: "NOPE", limit: 5, expectedErr: domain.ErrStockNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var snapLimit, eventLimit int
			history := &mockHistoryRepository{
				ListSnapshotsFunc: func(ctx context.Context, ticker string, limit int) ([]entity.StockSnapshot, error) {
					snapLimit = limit
					return []entity.StockSnapshot{{Ticker: ticker, Price: 1}}, nil
				},
				ListPriceEventsFunc: func(ctx context.Context, ticker string, limit int) ([]entity.PriceEvent, error) {
					eventLimit = limit
					return []entity.PriceEvent{{Ticker: ticker, Price: 1}}, nil
				},
			}
			uc := usecase.NewStockUsecase(&mockStockRepository{FindByTickerFunc: found}, history, nil, 1000)

			snaps, err := uc.Snapshots(context.Background(), tt.ticker, tt.limit)
			events, err2 := uc.PriceEvents(context.Background(), tt.ticker, tt.limit)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.ErrorIs(t, err2, tt.expectedErr)
				assert.Zero(t, snapLimit)
				assert.Zero(t, eventLimit)
				return
			}
			require.NoError(t, err)
			require.NoError(t, err2)
			assert.Len(t, snaps, 1)
			assert.Len(t, events, 1)
			assert.Equal(t, tt.expectedLimit, snapLimit)
			assert.Equal(t, tt.expectedLimit, eventLimit)
		})
	}
}

func TestStockUsecase_SetActive(t *testing.T) {
	t.Parallel()

	repo := &mockStockRepository{
		SetActiveFunc: func(ctx context.Context, ticker string, active bool) (*entity.Stock, error) {
			if ticker != "BOB" {
				return nil, domain.ErrStockNotFound
			}
			return &entity.Stock{Ticker: ticker, IsActive: active}, nil
		},
	}
	pub := &mockPublisher{}
	uc := usecase.NewStockUsecase(repo, &mockHistoryRepository{}, pub, 1000)

	got, err := uc.SetActive(context.Background(), "BOB", false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Len(t, pub.published, 1)

	_, err = uc.SetActive(context.Background(), "NOPE", true)
	assert.ErrorIs(t, err, domain.ErrStockNotFound)
	assert.Len(t, pub.published, 1)
}
