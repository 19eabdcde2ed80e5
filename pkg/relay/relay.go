// Package relay is an asynchronous request/response channel. Callers send a
// request tagged with an item id and later await the result carrying the
// same id.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Message kinds.
const (
	KindSummarize     = "SUMMARIZE"
	KindExtractOCR    = "EXTRACT_TEXT_OCR"
	KindSummaryResult = "SUMMARY_RESULT"
	KindOCRResult     = "OCR_RESULT"
)

// ErrNoHandler is returned by Send for a kind nobody registered.
var ErrNoHandler = errors.New("no handler registered")

// Envelope is one request or result. Payload is a models request or result
// struct.
type Envelope struct {
	Kind    string
	ItemID  string
	Payload any
}

// Handler answers a request envelope with a result envelope.
type Handler func(ctx context.Context, req Envelope) Envelope

// Bus routes requests to handlers and parks results until awaited.
type Bus struct {
	mu       sync.Mutex
	handlers map[string]Handler
	results  map[string]Envelope
	waiters  map[string][]chan Envelope
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// NewBus returns an empty Bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[string]Handler),
		results:  make(map[string]Envelope),
		waiters:  make(map[string][]chan Envelope),
		logger:   logger,
	}
}

// Register installs the handler for kind, replacing any previous one.
func (b *Bus) Register(kind string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = h
}

// Send hands req to its handler on a new goroutine and returns at once.
func (b *Bus) Send(ctx context.Context, req Envelope) error {
	b.mu.Lock()
	h, ok := b.handlers[req.Kind]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", req.Kind, ErrNoHandler)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		res := h(ctx, req)
		if res.ItemID == "" {
			res.ItemID = req.ItemID
		}
		b.deliver(res)
	}()
	return nil
}

func (b *Bus) deliver(res Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	waiters := b.waiters[res.ItemID]
	if len(waiters) == 0 {
		b.results[res.ItemID] = res
		return
	}
	delete(b.waiters, res.ItemID)
	for _, w := range waiters {
		w <- res
	}
	b.logger.Debug("relay result delivered", "kind", res.Kind, "item_id", res.ItemID)
}

// Await blocks until the result for itemID arrives or ctx is done. A result
// that arrived earlier is returned immediately and consumed.
func (b *Bus) Await(ctx context.Context, itemID string) (Envelope, error) {
	b.mu.Lock()
	if res, ok := b.results[itemID]; ok {
		delete(b.results, itemID)
		b.mu.Unlock()
		return res, nil
	}
	ch := make(chan Envelope, 1)
	b.waiters[itemID] = append(b.waiters[itemID], ch)
	b.mu.Unlock()

	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		b.dropWaiter(itemID, ch)
		return Envelope{}, ctx.Err()
	}
}

func (b *Bus) dropWaiter(itemID string, ch chan Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	waiters := b.waiters[itemID]
	for i, w := range waiters {
		if w == ch {
			waiters = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(waiters) == 0 {
		delete(b.waiters, itemID)
	} else {
		b.waiters[itemID] = waiters
	}
}

// Wait blocks until every handler started by Send has returned.
func (b *Bus) Wait() {
	b.wg.Wait()
}
