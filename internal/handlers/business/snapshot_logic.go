package business

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"launchpad/internal/models"
)

const snapshotWorkers = 8

// getZeroSecondTime truncates t to the start of its minute.
func getZeroSecondTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// RecordSnapshots samples every curve that is still trading and stores one
// CurveSnapshot per curve. It returns the number of snapshots written.
func (s *CurveService) RecordSnapshots(ctx context.Context) (int, error) {
	curves, err := s.store.ListActiveCurves(ctx)
	if err != nil {
		return 0, err
	}

	at := getZeroSecondTime(s.now())
	var (
		mu        sync.Mutex
		snapshots = make([]models.CurveSnapshot, 0, len(curves))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotWorkers)
	for i := range curves {
		curve := &curves[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stats, err := s.Stats(curve)
			if err != nil {
				s.log.WithField("token", curve.TokenAddress).Errorf("Failed to price curve: %v", err)
				return nil
			}
			snap := models.CurveSnapshot{
				TokenAddress:       curve.TokenAddress,
				SpotPrice:          models.NewAmount(stats.SpotPrice),
				SoldSupply:         curve.SoldSupply,
				BNBRaised:          curve.BNBRaised,
				Progress:           stats.Progress,
				CreatedAtByZeroSec: at,
			}
			mu.Lock()
			snapshots = append(snapshots, snap)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := s.store.CreateSnapshots(ctx, snapshots); err != nil {
		return 0, err
	}
	return len(snapshots), nil
}
