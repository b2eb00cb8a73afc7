package waiver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fitonboard/backend/pkg/logger"
)

// DraftStore persists unsigned waiver drafts.
type DraftStore interface {
	SaveDraft(ctx context.Context, userID string, d Data) error
	LoadDraft(ctx context.Context, userID string) (Data, bool, error)
}

// Drafts debounces draft writes per user. Saves arriving within the
// interval coalesce into a single write of the latest value.
type Drafts struct {
	store    DraftStore
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	pending map[string]*pendingDraft
	wg      sync.WaitGroup
}

type pendingDraft struct {
	data  Data
	timer *time.Timer
}

func NewDrafts(store DraftStore, interval time.Duration) *Drafts {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Drafts{
		store:    store,
		interval: interval,
		timeout:  5 * time.Second,
		pending:  make(map[string]*pendingDraft),
	}
}

// Save schedules a write of d for userID.
func (dr *Drafts) Save(userID string, d Data) {
	dr.mu.Lock()
	defer dr.mu.Unlock()

	if p, ok := dr.pending[userID]; ok {
		p.data = d
		// A timer that already fired is blocked on mu and will pick up d.
		if p.timer.Stop() {
			p.timer.Reset(dr.interval)
		}
		return
	}

	p := &pendingDraft{data: d}
	dr.wg.Add(1)
	p.timer = time.AfterFunc(dr.interval, func() {
		defer dr.wg.Done()
		dr.fire(userID, p)
	})
	dr.pending[userID] = p
}

func (dr *Drafts) fire(userID string, p *pendingDraft) {
	dr.mu.Lock()
	if dr.pending[userID] != p {
		dr.mu.Unlock()
		return
	}
	delete(dr.pending, userID)
	data := p.data
	dr.mu.Unlock()

	dr.write(userID, data)
}

// Flush writes every pending draft now and waits for in-flight writes.
func (dr *Drafts) Flush() {
	dr.mu.Lock()
	due := make(map[string]Data, len(dr.pending))
	for userID, p := range dr.pending {
		if p.timer.Stop() {
			dr.wg.Done()
		}
		due[userID] = p.data
		delete(dr.pending, userID)
	}
	dr.mu.Unlock()

	for userID, d := range due {
		dr.write(userID, d)
	}
	dr.wg.Wait()
}

// Discard drops userID's pending draft without writing it.
func (dr *Drafts) Discard(userID string) {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	if p, ok := dr.pending[userID]; ok {
		if p.timer.Stop() {
			dr.wg.Done()
		}
		delete(dr.pending, userID)
	}
}

// Load returns the pending draft, then the stored one, then the default form.
func (dr *Drafts) Load(ctx context.Context, userID string) Data {
	dr.mu.Lock()
	if p, ok := dr.pending[userID]; ok {
		d := p.data
		dr.mu.Unlock()
		return d
	}
	dr.mu.Unlock()

	d, ok, err := dr.store.LoadDraft(ctx, userID)
	if err != nil {
		logger.Warn("Failed to load waiver draft", zap.String("user_id", userID), zap.Error(err))
		return Default()
	}
	if !ok {
		return Default()
	}
	return d
}

func (dr *Drafts) write(userID string, d Data) {
	ctx, cancel := context.WithTimeout(context.Background(), dr.timeout)
	defer cancel()

	if err := dr.store.SaveDraft(ctx, userID, d); err != nil {
		logger.Error("Failed to save waiver draft", zap.String("user_id", userID), zap.Error(err))
		return
	}
	logger.Debug("Saved waiver draft", zap.String("user_id", userID))
}
