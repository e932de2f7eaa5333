// Package swipe records judgments and turns mutual likes into matches.
//
// Two users may like each other at the same moment from different sessions.
// Both calls may reach match creation; the unique pair key lets exactly one
// insert win and the loser re-reads the winner's row, so every caller that
// sees the mutual like gets the same match id. No lock or multi-statement
// transaction is involved.
package swipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/oggyb/buddyup/internal/auth"
	"github.com/oggyb/buddyup/internal/db"
	"github.com/oggyb/buddyup/internal/domain"
	"github.com/oggyb/buddyup/internal/metrics"
	"github.com/oggyb/buddyup/internal/store"
)

type SwipeStore interface {
	Insert(ctx context.Context, swiperID, targetID string, dir domain.Direction, at time.Time) (db.Swipe, error)
	Find(ctx context.Context, swiperID, targetID string) (db.Swipe, error)
	HasLiked(ctx context.Context, swiperID, targetID string) (bool, error)
}

type MatchStore interface {
	FindByPair(ctx context.Context, x, y string) (db.Match, error)
	Create(ctx context.Context, m *db.Match) error
}

// LikeCountInvalidator drops cached liked-you counts.
type LikeCountInvalidator interface {
	InvalidateLikeCount(ctx context.Context, userID string) error
}

// Result of a swipe. Warnings carry non-fatal problems, such as a swipe row
// that could not be stored; the match check still ran.
type Result struct {
	Matched  bool
	MatchID  string
	OtherID  string
	Warnings []string
}

type Service struct {
	swipes  SwipeStore
	matches MatchStore
	counts  LikeCountInvalidator
	log     *slog.Logger
	now     func() time.Time
	newID   func() string
}

func NewService(swipes SwipeStore, matches MatchStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		swipes:  swipes,
		matches: matches,
		log:     log,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID:   func() string { return ulid.Make().String() },
	}
}

// AttachLikeCounts enables liked-you count invalidation on every swipe.
func (s *Service) AttachLikeCounts(counts LikeCountInvalidator) {
	s.counts = counts
}

// RecordSwipeForSession records a swipe by the session user.
func (s *Service) RecordSwipeForSession(ctx context.Context, targetID string, dir domain.Direction) (Result, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return Result{}, domain.ErrNoSession
	}
	return s.RecordSwipe(ctx, userID, targetID, dir)
}

// RecordSwipe stores swiper's judgment of target and reports whether it
// completed a mutual like.
//
// Behavior:
//   - A repeated swipe on the same target is a no-op insert. The first
//     direction stays and decides the rest of the flow, so a retried like
//     still returns its match and a like after a pass does not match.
//   - Any other insert failure becomes a warning.
//   - Left swipes never match.
//   - Match creation failures other than a lost race are returned.
//
// Example:
//
//	svc.RecordSwipe(ctx, "a", "b", domain.DirectionRight)
func (s *Service) RecordSwipe(ctx context.Context, swiperID, targetID string, dir domain.Direction) (Result, error) {
	if err := validatePair(swiperID, targetID); err != nil {
		return Result{}, err
	}
	if !dir.Valid() {
		return Result{}, fmt.Errorf("unknown swipe direction %q: %w", dir, domain.ErrInvalidArgument)
	}

	var res Result
	dir = s.insertSwipe(ctx, &res, swiperID, targetID, dir)

	if !dir.IsLike() {
		return res, nil
	}

	mutual, err := s.swipes.HasLiked(ctx, targetID, swiperID)
	if err != nil {
		return res, fmt.Errorf("check reciprocal like: %w", err)
	}
	if !mutual {
		return res, nil
	}

	return s.complete(ctx, res, swiperID, targetID)
}

// AcceptLikeForSession accepts an inbound like on behalf of the session user.
func (s *Service) AcceptLikeForSession(ctx context.Context, likerID string) (Result, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return Result{}, domain.ErrNoSession
	}
	return s.AcceptLike(ctx, userID, likerID)
}

// AcceptLike answers likerID's like with a right swipe and creates the match
// directly, even when userID had passed on likerID before.
// Without a pending like from likerID it returns domain.ErrNotFound.
func (s *Service) AcceptLike(ctx context.Context, userID, likerID string) (Result, error) {
	if err := validatePair(userID, likerID); err != nil {
		return Result{}, err
	}

	liked, err := s.swipes.HasLiked(ctx, likerID, userID)
	if err != nil {
		return Result{}, fmt.Errorf("check inbound like: %w", err)
	}
	if !liked {
		return Result{}, fmt.Errorf("no like from %s: %w", likerID, domain.ErrNotFound)
	}

	var res Result
	s.insertSwipe(ctx, &res, userID, likerID, domain.DirectionRight)
	return s.complete(ctx, res, userID, likerID)
}

func (s *Service) complete(ctx context.Context, res Result, userID, otherID string) (Result, error) {
	m, err := s.reconcileMatch(ctx, userID, otherID)
	if err != nil {
		return res, fmt.Errorf("create match: %w", err)
	}

	res.Matched = true
	res.MatchID = m.ID
	res.OtherID = otherID
	s.log.Info("match confirmed", "match", m.ID, "user", userID, "other", otherID)
	return res, nil
}

// insertSwipe stores the judgment and returns the direction in effect for
// the pair: the new one, or the one already stored.
func (s *Service) insertSwipe(ctx context.Context, res *Result, swiperID, targetID string, dir domain.Direction) domain.Direction {
	row, created, err := store.InsertOrFetch(ctx,
		func(ctx context.Context) (db.Swipe, error) {
			return s.swipes.Insert(ctx, swiperID, targetID, dir, s.now())
		},
		func(ctx context.Context) (db.Swipe, error) {
			return s.swipes.Find(ctx, swiperID, targetID)
		},
	)
	effective := dir
	switch {
	case err != nil:
		metrics.SwipesTotal.WithLabelValues(string(dir), "failed").Inc()
		s.log.Warn("swipe insert failed, continuing", "swiper", swiperID, "target", targetID, "err", err)
		res.Warnings = append(res.Warnings, fmt.Sprintf("swipe was not saved: %v", err))
	case created:
		metrics.SwipesTotal.WithLabelValues(string(dir), "inserted").Inc()
	default:
		metrics.SwipesTotal.WithLabelValues(string(dir), "duplicate").Inc()
		s.log.Debug("swipe already recorded", "swiper", swiperID, "target", targetID, "kept", row.Direction)
		effective = row.Direction
	}

	if s.counts != nil {
		// both inboxes change: target gained a like, swiper answered one
		for _, id := range []string{targetID, swiperID} {
			if err := s.counts.InvalidateLikeCount(ctx, id); err != nil {
				s.log.Warn("liked-you count invalidation failed", "user", id, "err", err)
			}
		}
	}
	return effective
}

// reconcileMatch returns the pair's match, creating it when missing.
func (s *Service) reconcileMatch(ctx context.Context, x, y string) (db.Match, error) {
	existing, err := s.matches.FindByPair(ctx, x, y)
	if err == nil {
		metrics.MatchesTotal.WithLabelValues("reused").Inc()
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return db.Match{}, err
	}

	a, b := db.NormalizePair(x, y)
	m, created, err := store.InsertOrFetch(ctx,
		func(ctx context.Context) (db.Match, error) {
			m := db.Match{ID: s.newID(), UserA: a, UserB: b, CreatedAt: s.now()}
			if err := s.matches.Create(ctx, &m); err != nil {
				return db.Match{}, err
			}
			return m, nil
		},
		func(ctx context.Context) (db.Match, error) {
			return s.matches.FindByPair(ctx, a, b)
		},
	)
	if err != nil {
		return db.Match{}, err
	}

	if created {
		metrics.MatchesTotal.WithLabelValues("created").Inc()
	} else {
		metrics.MatchesTotal.WithLabelValues("raced").Inc()
	}
	return m, nil
}

func validatePair(userID, otherID string) error {
	if userID == "" || otherID == "" {
		return fmt.Errorf("user ids are required: %w", domain.ErrInvalidArgument)
	}
	if userID == otherID {
		return fmt.Errorf("cannot swipe on yourself: %w", domain.ErrInvalidArgument)
	}
	return nil
}
