package business

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"launchpad/internal/models"
	"launchpad/pkg/bondingcurve"
)

// newTestGormStore connects to TEST_DATABASE_DSN, e.g.
// "host=localhost user=postgres password=postgres dbname=launchpad_test sslmode=disable".
func newTestGormStore(t *testing.T) (*GormStore, *gorm.DB) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping postgres store tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.TokenCurve{}, &models.CurveHolder{}, &models.CurveTrade{},
		&models.CurveGraduation{}, &models.CurveSnapshot{}))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewGormStore(db), db
}

func randomTestAddress() string {
	a, b := uuid.New(), uuid.New()
	raw := append(a[:], b[:4]...)
	return common.HexToAddress("0x" + hex.EncodeToString(raw)).Hex()
}

func insertTestCurve(t *testing.T, store *GormStore, db *gorm.DB) *models.TokenCurve {
	t.Helper()
	p := bondingcurve.DefaultParams()
	curve := &models.TokenCurve{
		TokenAddress:   randomTestAddress(),
		CreatorAddress: creatorAddr,
		Name:           "Moon",
		Symbol:         "MOON",
		InitialPrice:   models.NewAmount(p.DefaultInitialPrice),
		TotalSupply:    models.NewAmount(p.DefaultTotalSupply),
	}
	require.NoError(t, store.CreateCurve(context.Background(), curve))

	token := curve.TokenAddress
	t.Cleanup(func() {
		db.Where("token_address = ?", token).Delete(&models.CurveTrade{})
		db.Where("token_address = ?", token).Delete(&models.CurveHolder{})
		db.Where("token_address = ?", token).Delete(&models.CurveGraduation{})
		db.Where("token_address = ?", token).Delete(&models.TokenCurve{})
	})
	return curve
}

func TestGormStoreSaveCurveVersionCheck(t *testing.T) {
	store, db := newTestGormStore(t)
	ctx := context.Background()
	curve := insertTestCurve(t, store, db)

	assert.ErrorIs(t, store.CreateCurve(ctx, &models.TokenCurve{TokenAddress: curve.TokenAddress}), ErrCurveExists)

	err := store.WithTokenLock(ctx, curve.TokenAddress, func(tx TradeTx) error {
		c := tx.Curve()
		c.SoldSupply = models.NewAmount(big.NewInt(1000))
		c.BNBRaised = models.NewAmount(big.NewInt(10))
		return tx.SaveCurve(c, c.Version)
	})
	require.NoError(t, err)

	stored, err := store.GetCurve(ctx, curve.TokenAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stored.Version)
	assert.Equal(t, "1000", stored.SoldSupply.String())

	t.Run("stale version", func(t *testing.T) {
		err := store.WithTokenLock(ctx, curve.TokenAddress, func(tx TradeTx) error {
			c := tx.Curve()
			c.SoldSupply = models.NewAmount(big.NewInt(5))
			return tx.SaveCurve(c, c.Version-1)
		})
		assert.ErrorIs(t, err, ErrConcurrentUpdate)

		stored, err := store.GetCurve(ctx, curve.TokenAddress)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), stored.Version)
		assert.Equal(t, "1000", stored.SoldSupply.String())
	})

	t.Run("failed fn rolls back", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.WithTokenLock(ctx, curve.TokenAddress, func(tx TradeTx) error {
			c := tx.Curve()
			c.SoldSupply = models.NewAmount(big.NewInt(7))
			if err := tx.SaveCurve(c, c.Version); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		stored, err := store.GetCurve(ctx, curve.TokenAddress)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), stored.Version)
		assert.Equal(t, "1000", stored.SoldSupply.String())
	})

	t.Run("unknown token", func(t *testing.T) {
		err := store.WithTokenLock(ctx, randomTestAddress(), func(TradeTx) error { return nil })
		assert.ErrorIs(t, err, ErrCurveNotFound)
	})
}

func TestGormStoreConcurrentBuys(t *testing.T) {
	store, db := newTestGormStore(t)
	curve := insertTestCurve(t, store, db)

	engine, err := bondingcurve.New(bondingcurve.DefaultParams())
	require.NoError(t, err)
	svc := NewCurveService(engine, store, Config{RetryInterval: time.Millisecond})

	const buyers = 10
	var wg sync.WaitGroup
	errs := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Buy(context.Background(), BuyInput{
				TokenAddress: curve.TokenAddress,
				Trader:       randomTestAddress(),
				BNBIn:        milliBNB(100),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := store.GetCurve(context.Background(), curve.TokenAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(buyers), stored.Version)
	want := new(big.Int).Mul(big.NewInt(buyers), big.NewInt(98750000000000000))
	assert.Equal(t, want.String(), stored.BNBRaised.String())

	trades, total, err := store.ListTrades(context.Background(), curve.TokenAddress,
		Page{Page: 1, PageSize: 100, OrderField: "id", OrderType: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(buyers), total)
	assert.Equal(t, stored.SoldSupply.String(), trades[len(trades)-1].SoldSupplyAfter.String())
}
