//go:build integration

package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"smg_backend/internal/feature/stocks/domain"
	"smg_backend/internal/feature/stocks/domain/entity"
)

// setupPostgres starts a PostgreSQL container and migrates the schema.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("smg"),
		tcpostgres.WithUsername("smg"),
		tcpostgres.WithPassword("smg"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

// TestStockRepository_TryMutateNoWaitOnPostgres は別プロセス相当のリポジトリが
// 行ロックを保持している間、TryMutate が待たずに ErrLockContention を返すことを検証します。
func TestStockRepository_TryMutateNoWaitOnPostgres(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	// 別インスタンスはプロセス内ロックを共有しない
	holder := NewStockRepository(db)
	contender := NewStockRepository(db)

	require.NoError(t, holder.Create(ctx, &entity.Stock{Ticker: "BOB", Title: "Bob", IsActive: true, Price: 100}))

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := holder.Mutate(ctx, "BOB", entity.ChangeAdmin, func(s *entity.Stock) (float64, error) {
			close(locked)
			<-release
			return 150, nil
		})
		done <- err
	}()

	<-locked
	start := time.Now()
	_, err := contender.TryMutate(ctx, "BOB", entity.ChangeRandom, func(s *entity.Stock) (float64, error) {
		return s.Price * 2, nil
	})
	assert.ErrorIs(t, err, domain.ErrLockContention)
	assert.Less(t, time.Since(start), 2*time.Second)

	close(release)
	require.NoError(t, <-done)

	// ロック解放後は成功する
	s, err := contender.TryMutate(ctx, "BOB", entity.ChangeRandom, func(s *entity.Stock) (float64, error) {
		return s.Price + 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 151.0, s.Price)
}
