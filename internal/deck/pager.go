// Package deck pages through discovery results for one client session,
// prefetching the next page before the queue runs dry.
package deck

import (
	"context"
	"slices"
	"sync"

	"github.com/oggyb/buddyup/internal/discovery"
)

const (
	defaultPageSize   = 20
	defaultPrefetchAt = 5
)

// Fetcher returns one deck page.
type Fetcher interface {
	Deck(ctx context.Context, req discovery.DeckRequest) (discovery.Deck, error)
}

// FetcherFunc adapts a function, such as discovery.Service.DeckForSession, to Fetcher.
type FetcherFunc func(ctx context.Context, req discovery.DeckRequest) (discovery.Deck, error)

func (f FetcherFunc) Deck(ctx context.Context, req discovery.DeckRequest) (discovery.Deck, error) {
	return f(ctx, req)
}

type Options struct {
	PageSize int
	// PrefetchAt triggers a load once Advance leaves this many or fewer candidates queued.
	PrefetchAt int
}

// Filters narrow the deck. Changing them starts a new generation.
type Filters struct {
	MaxDistanceKM float64
}

// Pager is safe for concurrent use. Fetches run without holding the lock;
// a result is applied only if no Reset happened while it was in flight.
type Pager struct {
	mu    sync.Mutex
	fetch Fetcher
	opts  Options

	filters  Filters
	gen      uint64
	inFlight bool
	queue    []discovery.Candidate
	seen     map[string]struct{}
	served   []string
	err      error
	caughtUp bool
}

func New(fetch Fetcher, opts Options) *Pager {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.PrefetchAt < 0 {
		opts.PrefetchAt = 0
	}
	if opts.PrefetchAt == 0 {
		opts.PrefetchAt = min(defaultPrefetchAt, opts.PageSize-1)
	}
	return &Pager{
		fetch: fetch,
		opts:  opts,
		seen:  make(map[string]struct{}),
	}
}

// Current returns the candidate on top of the deck.
func (p *Pager) Current() (discovery.Candidate, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return discovery.Candidate{}, false
	}
	return p.queue[0], true
}

// Len is the number of queued candidates.
func (p *Pager) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Advance drops the top candidate and prefetches when the queue runs low.
func (p *Pager) Advance(ctx context.Context) error {
	p.mu.Lock()
	if len(p.queue) > 0 {
		p.queue = p.queue[1:]
	}
	low := len(p.queue) <= p.opts.PrefetchAt
	p.mu.Unlock()

	if !low {
		return nil
	}
	return p.Load(ctx)
}

// Load fetches the next page. It is a no-op while another load of the same
// generation is in flight. On error the queue is kept and the error is
// available from Err.
func (p *Pager) Load(ctx context.Context) error {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return nil
	}
	p.inFlight = true
	gen := p.gen
	// served ids are excluded server side, so the next page always starts
	// at the first unseen candidate even after swipes reorder the ranking
	req := discovery.DeckRequest{
		Limit:         p.opts.PageSize,
		Seen:          slices.Clone(p.served),
		MaxDistanceKM: p.filters.MaxDistanceKM,
	}
	p.mu.Unlock()

	deck, err := p.fetch.Deck(ctx, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		// superseded by Reset; the new generation owns inFlight
		return nil
	}
	p.inFlight = false

	if err != nil {
		p.err = err
		return err
	}
	p.err = nil
	p.caughtUp = len(deck.Candidates) == 0

	for _, c := range deck.Candidates {
		if _, dup := p.seen[c.Profile.ID]; dup {
			continue
		}
		p.seen[c.Profile.ID] = struct{}{}
		p.served = append(p.served, c.Profile.ID)
		p.queue = append(p.queue, c)
	}
	return nil
}

// Reset starts a new generation with filters. Results of loads started
// before the reset are discarded.
func (p *Pager) Reset(filters Filters) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.gen++
	p.filters = filters
	p.inFlight = false
	p.queue = nil
	p.seen = make(map[string]struct{})
	p.served = nil
	p.err = nil
	p.caughtUp = false
}

// Err is the error of the last failed load of this generation.
func (p *Pager) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// CaughtUp reports whether the last load returned nothing.
func (p *Pager) CaughtUp() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.caughtUp
}

// Generation identifies the current filter set.
func (p *Pager) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}
