package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/buddyup/internal/auth"
	"github.com/oggyb/buddyup/internal/db"
	"github.com/oggyb/buddyup/internal/geo"
	"github.com/oggyb/buddyup/internal/metrics"
)

const (
	defaultPenalty        = 1000
	defaultPoolMultiplier = 3
	defaultConcurrency    = 8
	defaultLimit          = 20
	maxLimit              = 100
)

type ProfileStore interface {
	Get(ctx context.Context, id string) (db.Profile, error)
	Pool(ctx context.Context, exclude []string, limit int) ([]db.Profile, error)
}

type SwipeStore interface {
	Judged(ctx context.Context, swiperID string) (liked, disliked []string, err error)
}

type CategoryStore interface {
	ActiveIDs(ctx context.Context, userID string) ([]uint, error)
}

type BlockStore interface {
	Related(ctx context.Context, userID string) (map[string]struct{}, error)
}

// CategoryCache is consulted before CategoryStore. Its errors are ignored.
type CategoryCache interface {
	GetCategories(ctx context.Context, userID string) ([]uint, bool, error)
	SetCategories(ctx context.Context, userID string, ids []uint) error
}

type Config struct {
	// DislikePenalty is subtracted from passed candidates; values below 1000 are raised to 1000.
	DislikePenalty int
	// PoolMultiplier sizes the pool as PoolMultiplier × (offset+limit); at least 3.
	PoolMultiplier int
	// Concurrency bounds the parallel category lookups.
	Concurrency  int
	DefaultLimit int
	MaxLimit     int
}

// Viewer is who the deck is built for. Blocked holds every user in a block
// relation with the viewer, in either direction.
type Viewer struct {
	UserID  string
	Blocked map[string]struct{}
}

type DeckRequest struct {
	// Offset skips ranked candidates after Seen is removed.
	Offset int
	Limit  int
	// Seen lists users already served to this client. They are left out of
	// the pool, so a swipe between two pages cannot shift the next window.
	Seen []string
	// MaxDistanceKM drops candidates farther away when both sides have coordinates. 0 disables it.
	MaxDistanceKM float64
}

type Deck struct {
	Candidates []Candidate
	// CaughtUp is set when nothing is left to show.
	CaughtUp bool
}

type Service struct {
	profiles   ProfileStore
	swipes     SwipeStore
	categories CategoryStore
	blocks     BlockStore
	cache      CategoryCache
	cfg        Config
	log        *slog.Logger
}

func NewService(
	profiles ProfileStore,
	swipes SwipeStore,
	categories CategoryStore,
	blocks BlockStore,
	cfg Config,
	log *slog.Logger,
) *Service {
	if cfg.DislikePenalty < defaultPenalty {
		cfg.DislikePenalty = defaultPenalty
	}
	if cfg.PoolMultiplier < defaultPoolMultiplier {
		cfg.PoolMultiplier = defaultPoolMultiplier
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = maxLimit
	}
	if cfg.DefaultLimit <= 0 || cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = min(defaultLimit, cfg.MaxLimit)
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		profiles:   profiles,
		swipes:     swipes,
		categories: categories,
		blocks:     blocks,
		cfg:        cfg,
		log:        log,
	}
}

// AttachCache enables the category-set cache.
func (s *Service) AttachCache(cache CategoryCache) {
	s.cache = cache
}

// DeckForSession builds the deck of the session user. Without a session the
// deck is empty and no error is returned.
func (s *Service) DeckForSession(ctx context.Context, req DeckRequest) (Deck, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return Deck{}, nil
	}

	blocked, err := s.blocks.Related(ctx, userID)
	if err != nil {
		return Deck{}, fmt.Errorf("load blocks: %w", err)
	}
	return s.Deck(ctx, Viewer{UserID: userID, Blocked: blocked}, req)
}

// Deck ranks the candidate pool for viewer and returns the window
// [offset, offset+limit) of the candidates not in req.Seen.
//
// Behavior:
//   - Liked profiles and the viewer are excluded from the pool; passed ones
//     stay but score at least DislikePenalty lower.
//   - A failed category lookup counts as "no categories" for that user.
//   - Blocked users are removed after ranking, whatever their score.
//   - Pool or swipe query failures are returned.
func (s *Service) Deck(ctx context.Context, viewer Viewer, req DeckRequest) (Deck, error) {
	if viewer.UserID == "" {
		return Deck{}, nil
	}

	start := time.Now()
	defer func() { metrics.DeckBuildDuration.Observe(time.Since(start).Seconds()) }()

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}
	offset := max(req.Offset, 0)

	liked, disliked, err := s.swipes.Judged(ctx, viewer.UserID)
	if err != nil {
		return Deck{}, fmt.Errorf("load swipes: %w", err)
	}

	exclude := make([]string, 0, 1+len(liked)+len(req.Seen))
	exclude = append(exclude, viewer.UserID)
	exclude = append(exclude, liked...)
	exclude = append(exclude, req.Seen...)
	pool, err := s.profiles.Pool(ctx, exclude, s.cfg.PoolMultiplier*(offset+limit))
	if err != nil {
		return Deck{}, fmt.Errorf("load candidate pool: %w", err)
	}

	mine := s.categorySet(ctx, viewer.UserID)
	theirs := s.categorySets(ctx, pool)

	passed := make(map[string]struct{}, len(disliked))
	for _, id := range disliked {
		passed[id] = struct{}{}
	}

	origin, hasOrigin := s.origin(ctx, viewer.UserID)

	ranked := make([]Candidate, 0, len(pool))
	for i, p := range pool {
		_, isPassed := passed[p.ID]
		c := Candidate{
			Profile:  p,
			Overlap:  mine.Overlap(theirs[i]),
			Score:    Score(mine, theirs[i], isPassed, s.cfg.DislikePenalty),
			Disliked: isPassed,
		}
		if hasOrigin {
			if pt, ok := geo.PointFrom(p.Latitude, p.Longitude); ok {
				d := geo.DistanceKM(origin, pt)
				c.DistanceKM = &d
			}
		}
		ranked = append(ranked, c)
	}
	Rank(ranked)

	visible := ranked[:0]
	for _, c := range ranked {
		if _, ok := viewer.Blocked[c.Profile.ID]; ok {
			continue
		}
		if req.MaxDistanceKM > 0 && c.DistanceKM != nil && *c.DistanceKM > req.MaxDistanceKM {
			continue
		}
		visible = append(visible, c)
	}

	var window []Candidate
	if offset < len(visible) {
		window = visible[offset:min(offset+limit, len(visible))]
	}

	metrics.DeckSize.Observe(float64(len(window)))
	s.log.Debug("deck built",
		"user", viewer.UserID,
		"pool", len(pool),
		"returned", len(window),
		"offset", offset,
		"seen", len(req.Seen),
	)

	return Deck{Candidates: window, CaughtUp: len(window) == 0}, nil
}

// categorySet resolves one user's active categories, cache first. Failures
// degrade to the empty set.
func (s *Service) categorySet(ctx context.Context, userID string) CategorySet {
	if s.cache != nil {
		if ids, ok, err := s.cache.GetCategories(ctx, userID); err == nil && ok {
			return NewCategorySet(ids)
		}
	}

	ids, err := s.categories.ActiveIDs(ctx, userID)
	if err != nil {
		metrics.DegradedLookups.WithLabelValues("categories").Inc()
		s.log.Warn("category lookup failed, scoring as empty", "user", userID, "err", err)
		return CategorySet{}
	}

	if s.cache != nil {
		_ = s.cache.SetCategories(ctx, userID, ids)
	}
	return NewCategorySet(ids)
}

// categorySets resolves the pool's category sets concurrently. sets[i] belongs to pool[i].
func (s *Service) categorySets(ctx context.Context, pool []db.Profile) []CategorySet {
	sets := make([]CategorySet, len(pool))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, p := range pool {
		i, p := i, p
		g.Go(func() error {
			sets[i] = s.categorySet(gctx, p.ID)
			return nil
		})
	}
	_ = g.Wait()

	return sets
}

// origin returns the viewer's coordinates when known.
func (s *Service) origin(ctx context.Context, userID string) (geo.Point, bool) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		s.log.Debug("viewer profile unavailable, skipping distances", "user", userID, "err", err)
		return geo.Point{}, false
	}
	return geo.PointFrom(p.Latitude, p.Longitude)
}
