// Package worker consumes graduation events and seeds the DEX pool of each graduated
// token.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"launchpad/internal/handlers/business"
	"launchpad/pkg/config"
)

// DefaultMaxErrorCount is the number of failed seeding attempts after which a
// graduation message is dropped.
const DefaultMaxErrorCount = 3

// LiquiditySeeder creates the DEX pool of a graduated token. Implementations must be
// idempotent per token, a message can be delivered more than once.
type LiquiditySeeder interface {
	SeedPool(ctx context.Context, event business.GraduationEvent) error
}

// GraduationMarker records that seeding finished.
type GraduationMarker interface {
	MarkSeeded(ctx context.Context, tokenAddress string) error
}

// LogSeeder only logs the pool that would be created.
type LogSeeder struct{}

func (LogSeeder) SeedPool(_ context.Context, e business.GraduationEvent) error {
	log.WithFields(log.Fields{
		"token":            e.TokenAddress,
		"liquidity_bnb":    e.LiquidityBNB,
		"liquidity_tokens": e.LiquidityTokens,
		"listing_price":    e.ListingPrice,
		"creator_bnb":      e.CreatorBNB,
		"platform_bnb":     e.PlatformBNB,
	}).Info("Seeding DEX pool")
	return nil
}

// GraduationHandler handles curve_graduation messages.
type GraduationHandler struct {
	seeder        LiquiditySeeder
	marker        GraduationMarker
	maxErrorCount int

	// errorCounts tracks consecutive failures per token
	errorCounts map[string]int
	mu          sync.Mutex
}

func NewGraduationHandler(seeder LiquiditySeeder, marker GraduationMarker, maxErrorCount int) *GraduationHandler {
	if maxErrorCount <= 0 {
		maxErrorCount = DefaultMaxErrorCount
	}
	return &GraduationHandler{
		seeder:        seeder,
		marker:        marker,
		maxErrorCount: maxErrorCount,
		errorCounts:   make(map[string]int),
	}
}

// Handle is a config.HandlerFunc. Transient failures are returned for requeueing until
// a token reaches maxErrorCount, after which its message is dropped.
func (h *GraduationHandler) Handle(ctx context.Context, body []byte) error {
	var event business.GraduationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: failed to decode graduation event: %v", config.ErrDropMessage, err)
	}
	if event.TokenAddress == "" {
		return fmt.Errorf("%w: graduation event without token", config.ErrDropMessage)
	}

	fields := log.Fields{"token": event.TokenAddress, "event_id": event.EventID}
	log.WithFields(fields).Info("Received graduation event")

	if err := h.seeder.SeedPool(ctx, event); err != nil {
		return h.fail(event.TokenAddress, fmt.Errorf("failed to seed pool: %w", err))
	}

	if err := h.marker.MarkSeeded(ctx, event.TokenAddress); err != nil {
		if errors.Is(err, business.ErrGraduationNotFound) {
			return fmt.Errorf("%w: %v", config.ErrDropMessage, err)
		}
		return h.fail(event.TokenAddress, fmt.Errorf("failed to mark graduation seeded: %w", err))
	}

	h.resetErrorCount(event.TokenAddress)
	log.WithFields(fields).Info("Graduation seeded")
	return nil
}

func (h *GraduationHandler) fail(token string, err error) error {
	count := h.incrementErrorCount(token)
	if count >= h.maxErrorCount {
		log.Errorf("Error count exceeded threshold for %s, dropping graduation: %v", token, err)
		h.resetErrorCount(token)
		return fmt.Errorf("%w: %v", config.ErrDropMessage, err)
	}
	return err
}

// incrementErrorCount increments the error count for a token
func (h *GraduationHandler) incrementErrorCount(token string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.errorCounts[token]++
	count := h.errorCounts[token]
	log.Warnf("Error count for token %s: %d/%d", token, count, h.maxErrorCount)
	return count
}

// resetErrorCount resets the error count for a token
func (h *GraduationHandler) resetErrorCount(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.errorCounts, token)
}
