package business

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"launchpad/internal/models"
)

// Page selects a slice of an ordered listing.
type Page struct {
	Page       int
	PageSize   int
	OrderField string
	OrderType  string
}

func (p Page) offset() int {
	return (p.Page - 1) * p.PageSize
}

func (p Page) order() string {
	return p.OrderField + " " + p.OrderType
}

// Store persists curves and their trades.
type Store interface {
	CreateCurve(ctx context.Context, curve *models.TokenCurve) error
	GetCurve(ctx context.Context, tokenAddress string) (*models.TokenCurve, error)
	ListCurves(ctx context.Context, page Page) ([]models.TokenCurve, int64, error)
	ListActiveCurves(ctx context.Context) ([]models.TokenCurve, error)
	GetHolder(ctx context.Context, tokenAddress, trader string) (*models.CurveHolder, error)
	ListTrades(ctx context.Context, tokenAddress string, page Page) ([]models.CurveTrade, int64, error)
	GetGraduation(ctx context.Context, tokenAddress string) (*models.CurveGraduation, error)
	ListPendingGraduations(ctx context.Context, olderThan time.Time) ([]models.CurveGraduation, error)
	MarkGraduationSeeded(ctx context.Context, tokenAddress string, at time.Time) error
	CreateSnapshots(ctx context.Context, snapshots []models.CurveSnapshot) error

	// WithTokenLock runs fn inside a transaction holding the curve row of tokenAddress.
	// Writes made through the TradeTx are committed only if fn returns nil.
	WithTokenLock(ctx context.Context, tokenAddress string, fn func(tx TradeTx) error) error
}

// TradeTx is the write side of one locked trade.
type TradeTx interface {
	Curve() *models.TokenCurve
	Holder(trader string) (*models.CurveHolder, error)
	// SaveCurve writes curve if its stored version still equals expectedVersion and
	// bumps the version. It returns ErrConcurrentUpdate otherwise.
	SaveCurve(curve *models.TokenCurve, expectedVersion uint64) error
	SaveHolder(holder *models.CurveHolder) error
	CreateTrade(trade *models.CurveTrade) error
	CreateGraduation(graduation *models.CurveGraduation) error
}

// GormStore is the postgres Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateCurve(ctx context.Context, curve *models.TokenCurve) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.TokenCurve{}).
		Where("token_address = ?", curve.TokenAddress).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrCurveExists
	}

	if err := s.db.WithContext(ctx).Create(curve).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCurveExists
		}
		return err
	}
	return nil
}

func (s *GormStore) GetCurve(ctx context.Context, tokenAddress string) (*models.TokenCurve, error) {
	var curve models.TokenCurve
	if err := s.db.WithContext(ctx).Where("token_address = ?", tokenAddress).First(&curve).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCurveNotFound
		}
		return nil, err
	}
	return &curve, nil
}

func (s *GormStore) ListCurves(ctx context.Context, page Page) ([]models.TokenCurve, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.TokenCurve{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var curves []models.TokenCurve
	if err := s.db.WithContext(ctx).Order(page.order()).
		Offset(page.offset()).
		Limit(page.PageSize).
		Find(&curves).Error; err != nil {
		return nil, 0, err
	}
	return curves, total, nil
}

func (s *GormStore) ListActiveCurves(ctx context.Context) ([]models.TokenCurve, error) {
	var curves []models.TokenCurve
	if err := s.db.WithContext(ctx).Where("graduated = ?", false).Order("id").Find(&curves).Error; err != nil {
		return nil, err
	}
	return curves, nil
}

func (s *GormStore) GetHolder(ctx context.Context, tokenAddress, trader string) (*models.CurveHolder, error) {
	return findHolder(s.db.WithContext(ctx), tokenAddress, trader)
}

func (s *GormStore) ListTrades(ctx context.Context, tokenAddress string, page Page) ([]models.CurveTrade, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.CurveTrade{}).Where("token_address = ?", tokenAddress)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var trades []models.CurveTrade
	if err := s.db.WithContext(ctx).Where("token_address = ?", tokenAddress).
		Order(page.order()).
		Offset(page.offset()).
		Limit(page.PageSize).
		Find(&trades).Error; err != nil {
		return nil, 0, err
	}
	return trades, total, nil
}

func (s *GormStore) GetGraduation(ctx context.Context, tokenAddress string) (*models.CurveGraduation, error) {
	var g models.CurveGraduation
	if err := s.db.WithContext(ctx).Where("token_address = ?", tokenAddress).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGraduationNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (s *GormStore) ListPendingGraduations(ctx context.Context, olderThan time.Time) ([]models.CurveGraduation, error) {
	var list []models.CurveGraduation
	if err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.GraduationStatusPending, olderThan).
		Order("id").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *GormStore) MarkGraduationSeeded(ctx context.Context, tokenAddress string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.CurveGraduation{}).
		Where("token_address = ?", tokenAddress).
		Updates(map[string]interface{}{
			"status":    models.GraduationStatusSeeded,
			"seeded_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGraduationNotFound
	}
	return nil
}

func (s *GormStore) CreateSnapshots(ctx context.Context, snapshots []models.CurveSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(snapshots, 100).Error
}

func (s *GormStore) WithTokenLock(ctx context.Context, tokenAddress string, fn func(tx TradeTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var curve models.TokenCurve
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token_address = ?", tokenAddress).
			First(&curve).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCurveNotFound
			}
			return err
		}
		return fn(&gormTradeTx{tx: tx, curve: &curve})
	})
}

type gormTradeTx struct {
	tx    *gorm.DB
	curve *models.TokenCurve
}

func (t *gormTradeTx) Curve() *models.TokenCurve {
	return t.curve
}

func (t *gormTradeTx) Holder(trader string) (*models.CurveHolder, error) {
	return findHolder(t.tx, t.curve.TokenAddress, trader)
}

func (t *gormTradeTx) SaveCurve(curve *models.TokenCurve, expectedVersion uint64) error {
	res := t.tx.Model(&models.TokenCurve{}).
		Where("id = ? AND version = ?", curve.ID, expectedVersion).
		Updates(map[string]interface{}{
			"sold_supply":  curve.SoldSupply,
			"bnb_raised":   curve.BNBRaised,
			"graduated":    curve.Graduated,
			"graduated_at": curve.GraduatedAt,
			"version":      expectedVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	curve.Version = expectedVersion + 1
	return nil
}

func (t *gormTradeTx) SaveHolder(holder *models.CurveHolder) error {
	return t.tx.Save(holder).Error
}

func (t *gormTradeTx) CreateTrade(trade *models.CurveTrade) error {
	return t.tx.Create(trade).Error
}

func (t *gormTradeTx) CreateGraduation(graduation *models.CurveGraduation) error {
	if err := t.tx.Create(graduation).Error; err != nil {
		return fmt.Errorf("failed to record graduation: %w", err)
	}
	return nil
}

// findHolder returns the holder row, or an unsaved zero-balance row when none exists.
func findHolder(db *gorm.DB, tokenAddress, trader string) (*models.CurveHolder, error) {
	var h models.CurveHolder
	err := db.Where("token_address = ? AND trader = ?", tokenAddress, trader).First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.CurveHolder{TokenAddress: tokenAddress, Trader: trader}, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}
