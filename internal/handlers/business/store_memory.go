package business

import (
	"context"
	"sort"
	"sync"
	"time"

	"launchpad/internal/models"
)

// MemoryStore is an in-memory Store for tests and local runs. WithTokenLock holds a
// single mutex, which gives the same per-token serialization as the row lock of the
// postgres store.
type MemoryStore struct {
	mu          sync.Mutex
	curves      map[string]*models.TokenCurve
	holders     map[string]*models.CurveHolder
	trades      []models.CurveTrade
	graduations map[string]*models.CurveGraduation
	snapshots   []models.CurveSnapshot
	nextID      uint

	// conflicts makes the next n SaveCurve calls lose their version check.
	conflicts int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		curves:      make(map[string]*models.TokenCurve),
		holders:     make(map[string]*models.CurveHolder),
		graduations: make(map[string]*models.CurveGraduation),
	}
}

func holderKey(token, trader string) string {
	return token + "|" + trader
}

func (m *MemoryStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) CreateCurve(_ context.Context, curve *models.TokenCurve) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.curves[curve.TokenAddress]; ok {
		return ErrCurveExists
	}
	curve.ID = m.id()
	c := *curve
	m.curves[curve.TokenAddress] = &c
	return nil
}

func (m *MemoryStore) GetCurve(_ context.Context, token string) (*models.TokenCurve, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.curves[token]
	if !ok {
		return nil, ErrCurveNotFound
	}
	out := *c
	return &out, nil
}

func (m *MemoryStore) ListCurves(_ context.Context, page Page) ([]models.TokenCurve, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.TokenCurve
	for _, c := range m.curves {
		all = append(all, *c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, page), int64(len(all)), nil
}

func (m *MemoryStore) ListActiveCurves(_ context.Context) ([]models.TokenCurve, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TokenCurve
	for _, c := range m.curves {
		if !c.Graduated {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetHolder(_ context.Context, token, trader string) (*models.CurveHolder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holder(token, trader), nil
}

func (m *MemoryStore) holder(token, trader string) *models.CurveHolder {
	if h, ok := m.holders[holderKey(token, trader)]; ok {
		out := *h
		return &out
	}
	return &models.CurveHolder{TokenAddress: token, Trader: trader}
}

func (m *MemoryStore) ListTrades(_ context.Context, token string, page Page) ([]models.CurveTrade, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CurveTrade
	for _, t := range m.trades {
		if t.TokenAddress == token {
			out = append(out, t)
		}
	}
	return paginate(out, page), int64(len(out)), nil
}

func (m *MemoryStore) GetGraduation(_ context.Context, token string) (*models.CurveGraduation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.graduations[token]
	if !ok {
		return nil, ErrGraduationNotFound
	}
	out := *g
	return &out, nil
}

func (m *MemoryStore) ListPendingGraduations(_ context.Context, olderThan time.Time) ([]models.CurveGraduation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CurveGraduation
	for _, g := range m.graduations {
		if g.Status == models.GraduationStatusPending && g.CreatedAt.Before(olderThan) {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *MemoryStore) MarkGraduationSeeded(_ context.Context, token string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.graduations[token]
	if !ok {
		return ErrGraduationNotFound
	}
	g.Status = models.GraduationStatusSeeded
	g.SeededAt = &at
	return nil
}

func (m *MemoryStore) CreateSnapshots(_ context.Context, snapshots []models.CurveSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snapshots...)
	return nil
}

func (m *MemoryStore) WithTokenLock(_ context.Context, token string, fn func(tx TradeTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.curves[token]
	if !ok {
		return ErrCurveNotFound
	}
	locked := *c
	tx := &memoryTx{store: m, curve: &locked}
	if err := fn(tx); err != nil {
		return err
	}

	if tx.saved != nil {
		m.curves[token] = tx.saved
	}
	for _, h := range tx.holders {
		if h.ID == 0 {
			h.ID = m.id()
		}
		m.holders[holderKey(h.TokenAddress, h.Trader)] = h
	}
	for _, t := range tx.trades {
		t.ID = m.id()
		m.trades = append(m.trades, *t)
	}
	for _, g := range tx.graduations {
		g.ID = m.id()
		m.graduations[g.TokenAddress] = g
	}
	return nil
}

type memoryTx struct {
	store       *MemoryStore
	curve       *models.TokenCurve
	saved       *models.TokenCurve
	holders     []*models.CurveHolder
	trades      []*models.CurveTrade
	graduations []*models.CurveGraduation
}

func (t *memoryTx) Curve() *models.TokenCurve {
	return t.curve
}

func (t *memoryTx) Holder(trader string) (*models.CurveHolder, error) {
	return t.store.holder(t.curve.TokenAddress, trader), nil
}

func (t *memoryTx) SaveCurve(curve *models.TokenCurve, expectedVersion uint64) error {
	if t.store.conflicts > 0 {
		t.store.conflicts--
		return ErrConcurrentUpdate
	}
	if t.store.curves[curve.TokenAddress].Version != expectedVersion {
		return ErrConcurrentUpdate
	}
	curve.Version = expectedVersion + 1
	saved := *curve
	t.saved = &saved
	return nil
}

func (t *memoryTx) SaveHolder(holder *models.CurveHolder) error {
	h := *holder
	t.holders = append(t.holders, &h)
	return nil
}

func (t *memoryTx) CreateTrade(trade *models.CurveTrade) error {
	tr := *trade
	t.trades = append(t.trades, &tr)
	return nil
}

func (t *memoryTx) CreateGraduation(graduation *models.CurveGraduation) error {
	g := *graduation
	t.graduations = append(t.graduations, &g)
	return nil
}

func paginate[T any](items []T, page Page) []T {
	start := page.offset()
	if start >= len(items) {
		return nil
	}
	end := start + page.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
