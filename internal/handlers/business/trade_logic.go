package business

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"launchpad/internal/models"
	"launchpad/pkg/bondingcurve"
)

// BuyInput is a request to spend BNBIn on the curve of TokenAddress.
type BuyInput struct {
	TokenAddress string
	Trader       string
	BNBIn        *big.Int
	MinTokensOut *big.Int
}

// SellInput is a request to return TokensIn to the curve of TokenAddress.
type SellInput struct {
	TokenAddress string
	Trader       string
	TokensIn     *big.Int
	MinBNBOut    *big.Int
}

// TradeResult is a committed trade. Graduation is set only on the trade that
// moved the curve across the graduation threshold.
type TradeResult struct {
	Trade      *models.CurveTrade
	Curve      *models.TokenCurve
	Holder     *models.CurveHolder
	Graduation *models.CurveGraduation
}

// tradeFunc prices and stages one trade inside a locked transaction.
type tradeFunc func(tx TradeTx, now time.Time) (*TradeResult, error)

// Buy executes a buy. The returned error wraps a bondingcurve error when the engine
// rejected the trade.
func (s *CurveService) Buy(ctx context.Context, in BuyInput) (*TradeResult, error) {
	token, trader, err := normalizePair(in.TokenAddress, in.Trader)
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, token, func(tx TradeTx, now time.Time) (*TradeResult, error) {
		curve := tx.Curve()
		q, err := s.engine.QuoteBuy(curve.State(), in.BNBIn, in.MinTokensOut)
		if err != nil {
			return nil, err
		}

		holder, err := tx.Holder(trader)
		if err != nil {
			return nil, err
		}
		holder.Balance = models.NewAmount(new(big.Int).Add(holder.Balance.BigInt(), q.TokensOut))

		trade := &models.CurveTrade{
			TokenAddress: token,
			Trader:       trader,
			Side:         models.TradeSideBuy,
			BNBAmount:    models.NewAmount(q.BNBIn),
			TokenAmount:  models.NewAmount(q.TokensOut),
			PlatformFee:  models.NewAmount(q.Fee.Platform),
			CreatorFee:   models.NewAmount(q.Fee.Creator),
			PriceAfter:   models.NewAmount(q.PriceAfter),
		}
		return s.commit(tx, curve, holder, trade, q.NewSoldSupply, q.NewBNBRaised, now)
	})
}

// Sell executes a sell. The trader must hold at least TokensIn from curve buys.
func (s *CurveService) Sell(ctx context.Context, in SellInput) (*TradeResult, error) {
	token, trader, err := normalizePair(in.TokenAddress, in.Trader)
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, token, func(tx TradeTx, now time.Time) (*TradeResult, error) {
		if in.TokensIn == nil || in.TokensIn.Sign() <= 0 {
			return nil, fmt.Errorf("%w: token amount must be positive", bondingcurve.ErrInvalidInput)
		}

		holder, err := tx.Holder(trader)
		if err != nil {
			return nil, err
		}
		balance := holder.Balance.BigInt()
		if balance.Cmp(in.TokensIn) < 0 {
			return nil, fmt.Errorf("%w: %w: holds %s, selling %s",
				ErrTraderBalance, bondingcurve.ErrInsufficientBalance, balance, in.TokensIn)
		}

		curve := tx.Curve()
		q, err := s.engine.QuoteSell(curve.State(), in.TokensIn, in.MinBNBOut)
		if err != nil {
			return nil, err
		}
		holder.Balance = models.NewAmount(balance.Sub(balance, in.TokensIn))

		trade := &models.CurveTrade{
			TokenAddress: token,
			Trader:       trader,
			Side:         models.TradeSideSell,
			BNBAmount:    models.NewAmount(q.BNBOut),
			TokenAmount:  models.NewAmount(q.TokensIn),
			PlatformFee:  models.NewAmount(q.Fee.Platform),
			CreatorFee:   models.NewAmount(q.Fee.Creator),
			PriceAfter:   models.NewAmount(q.PriceAfter),
		}
		return s.commit(tx, curve, holder, trade, q.NewSoldSupply, q.NewBNBRaised, now)
	})
}

// commit stages the new curve state, the holder balance, the trade row and, on the
// threshold-crossing trade, the graduation split.
func (s *CurveService) commit(tx TradeTx, curve *models.TokenCurve, holder *models.CurveHolder,
	trade *models.CurveTrade, newSold, newRaised *big.Int, now time.Time) (*TradeResult, error) {

	expected := curve.Version
	curve.SoldSupply = models.NewAmount(newSold)
	curve.BNBRaised = models.NewAmount(newRaised)

	var graduation *models.CurveGraduation
	state := curve.State()
	if !curve.Graduated && s.engine.CheckGraduation(state) {
		split, err := s.engine.Graduate(state)
		if err != nil {
			return nil, err
		}
		curve.Graduated = true
		curve.GraduatedAt = &now
		graduation = &models.CurveGraduation{
			TokenAddress:    curve.TokenAddress,
			BNBRaised:       curve.BNBRaised,
			SoldSupply:      curve.SoldSupply,
			LiquidityBNB:    models.NewAmount(split.LiquidityBNB),
			CreatorBNB:      models.NewAmount(split.CreatorBNB),
			PlatformBNB:     models.NewAmount(split.PlatformBNB),
			LiquidityTokens: models.NewAmount(split.LiquidityTokens),
			ListingPrice:    models.NewAmount(split.ListingPrice),
			Status:          models.GraduationStatusPending,
			CreatedAt:       now,
		}
	}

	if err := tx.SaveCurve(curve, expected); err != nil {
		return nil, err
	}
	if err := tx.SaveHolder(holder); err != nil {
		return nil, err
	}

	trade.TradeID = uuid.NewString()
	trade.SoldSupplyAfter = curve.SoldSupply
	trade.BNBRaisedAfter = curve.BNBRaised
	trade.CreatedAt = now
	if err := tx.CreateTrade(trade); err != nil {
		return nil, err
	}
	if graduation != nil {
		if err := tx.CreateGraduation(graduation); err != nil {
			return nil, err
		}
	}

	return &TradeResult{Trade: trade, Curve: curve, Holder: holder, Graduation: graduation}, nil
}

// execute runs fn under the token lock. Lost version checks are retried with
// exponential backoff; every other error is returned as is.
func (s *CurveService) execute(ctx context.Context, token string, fn tradeFunc) (*TradeResult, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.RetryInterval

	operation := func() (*TradeResult, error) {
		var result *TradeResult
		err := s.store.WithTokenLock(ctx, token, func(tx TradeTx) error {
			r, err := fn(tx, s.now())
			if err != nil {
				return err
			}
			result = r
			return nil
		})
		if errors.Is(err, ErrConcurrentUpdate) {
			return nil, err
		}
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return result, nil
	}

	notify := func(err error, d time.Duration) {
		s.log.WithFields(logrus.Fields{"token": token, "backoff": d}).Warnf("Retrying trade: %v", err)
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(s.cfg.MaxTradeTries),
		backoff.WithNotify(notify))
	if err != nil {
		return nil, err
	}

	s.afterCommit(result)
	return result, nil
}

func (s *CurveService) afterCommit(r *TradeResult) {
	t := r.Trade
	s.log.WithFields(logrus.Fields{
		"trade_id":     t.TradeID,
		"token":        t.TokenAddress,
		"trader":       t.Trader,
		"side":         t.Side,
		"bnb_amount":   t.BNBAmount.String(),
		"token_amount": t.TokenAmount.String(),
		"bnb_raised":   t.BNBRaisedAfter.String(),
	}).Info("Trade executed")

	if s.notifier != nil {
		s.notifier.NotifyTrade(TradeEvent{
			EventID:      uuid.NewString(),
			TradeID:      t.TradeID,
			TokenAddress: t.TokenAddress,
			Trader:       t.Trader,
			Side:         t.Side,
			BNBAmount:    t.BNBAmount.String(),
			TokenAmount:  t.TokenAmount.String(),
			PriceAfter:   t.PriceAfter.String(),
			SoldSupply:   t.SoldSupplyAfter.String(),
			BNBRaised:    t.BNBRaisedAfter.String(),
			Graduated:    r.Curve.Graduated,
			Timestamp:    t.CreatedAt,
		})
	}

	if r.Graduation != nil {
		s.log.WithFields(logrus.Fields{
			"token":            r.Graduation.TokenAddress,
			"liquidity_bnb":    r.Graduation.LiquidityBNB.String(),
			"liquidity_tokens": r.Graduation.LiquidityTokens.String(),
		}).Info("Token curve graduated")
		s.publishGraduation(r.Graduation)
	}
}

// publishGraduation hands a graduation to the worker queue. A failed publish leaves the
// record pending; RepublishPendingGraduations picks it up later.
func (s *CurveService) publishGraduation(g *models.CurveGraduation) {
	if s.publisher == nil {
		s.log.WithField("token", g.TokenAddress).Warn("No publisher configured, graduation left pending")
		return
	}
	event := newGraduationEvent(uuid.NewString(), g, s.now())
	if err := s.publisher.Publish(GraduationQueue, event); err != nil {
		s.log.WithField("token", g.TokenAddress).Errorf("Failed to publish graduation: %v", err)
	}
}

// RepublishPendingGraduations republishes graduations still pending after minAge.
func (s *CurveService) RepublishPendingGraduations(ctx context.Context, minAge time.Duration) (int, error) {
	pending, err := s.store.ListPendingGraduations(ctx, s.now().Add(-minAge))
	if err != nil {
		return 0, err
	}
	for i := range pending {
		s.publishGraduation(&pending[i])
	}
	return len(pending), nil
}

func normalizePair(token, trader string) (string, string, error) {
	token, err := NormalizeAddress(token)
	if err != nil {
		return "", "", err
	}
	trader, err = NormalizeAddress(trader)
	if err != nil {
		return "", "", err
	}
	return token, trader, nil
}
