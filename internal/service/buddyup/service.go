package buddyup

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/oggyb/buddyup/internal/app"
	"github.com/oggyb/buddyup/internal/auth"
	"github.com/oggyb/buddyup/internal/chat"
	"github.com/oggyb/buddyup/internal/db"
	"github.com/oggyb/buddyup/internal/discovery"
	"github.com/oggyb/buddyup/internal/domain"
	svcErr "github.com/oggyb/buddyup/internal/errors"
	"github.com/oggyb/buddyup/internal/ratelimit"
	"github.com/oggyb/buddyup/internal/repository"
	pb "github.com/oggyb/buddyup/internal/rpc/buddyup"
	"github.com/oggyb/buddyup/internal/swipe"
	"github.com/oggyb/buddyup/internal/unread"
)

const defaultLikersPage = 20

var _ pb.BuddyUpServer = (*Service)(nil)

// Service implements the BuddyUp gRPC API.
// It validates requests, resolves the session user and delegates to the
// discovery, swipe, unread and chat services. Every error leaves through
// svcErr.Map.
type Service struct {
	appCtx *app.AppContext

	profiles   *repository.ProfileRepository
	categories *repository.CategoryRepository
	swipeRepo  *repository.SwipeRepository
	matches    *repository.MatchRepository
	blocks     *repository.BlockRepository
	accounts   *repository.AccountRepository

	discovery *discovery.Service
	swipes    *swipe.Service
	unread    *unread.Service
	chat      *chat.Service

	now func() time.Time
}

// NewBuddyUpService wires repositories and domain services from AppContext.
// Redis is optional: without it category sets and liked-you counts always
// come from the database.
func NewBuddyUpService(appCtx *app.AppContext) *Service {
	database := appCtx.DB
	log := appCtx.Logger
	cfg := appCtx.Config

	profiles := repository.NewProfileRepository(database)
	categories := repository.NewCategoryRepository(database)
	swipeRepo := repository.NewSwipeRepository(database)
	matches := repository.NewMatchRepository(database)
	blocks := repository.NewBlockRepository(database)
	messages := repository.NewMessageRepository(database)
	markers := repository.NewReadMarkerRepository(database)

	disc := discovery.NewService(profiles, swipeRepo, categories, blocks, discovery.Config{
		DislikePenalty: cfg.Ranking.DislikePenalty,
		PoolMultiplier: cfg.Ranking.PoolMultiplier,
		Concurrency:    cfg.Ranking.CategoryConcurrency,
		DefaultLimit:   cfg.Ranking.DefaultDeckSize,
		MaxLimit:       cfg.Ranking.MaxDeckSize,
	}, log)

	swipes := swipe.NewService(swipeRepo, matches, log)
	reads := unread.NewService(markers, messages, log)

	if appCtx.RedisCache != nil {
		disc.AttachCache(appCtx.RedisCache)
		swipes.AttachLikeCounts(appCtx.RedisCache)
	}

	return &Service{
		appCtx:     appCtx,
		profiles:   profiles,
		categories: categories,
		swipeRepo:  swipeRepo,
		matches:    matches,
		blocks:     blocks,
		accounts:   repository.NewAccountRepository(database),
		discovery:  disc,
		swipes:     swipes,
		unread:     reads,
		chat:       chat.NewService(matches, blocks, messages, reads, appCtx.Limiter, log),
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func sessionUser(ctx context.Context) (string, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return "", domain.ErrNoSession
	}
	return userID, nil
}

// GetDeck returns the ranked discovery window of the session user.
// Without a session the deck is empty.
func (s *Service) GetDeck(ctx context.Context, req *pb.DeckRequest) (*pb.DeckResponse, error) {
	if err := pb.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}

	deck, err := s.discovery.DeckForSession(ctx, discovery.DeckRequest{
		Offset:        req.Offset,
		Limit:         req.Limit,
		Seen:          req.SeenUserIDs,
		MaxDistanceKM: req.MaxDistanceKM,
	})
	if err != nil {
		s.appCtx.Logger.Error("deck failed", "user_id", auth.UserID(ctx), "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &pb.DeckResponse{
		Candidates: make([]pb.Candidate, 0, len(deck.Candidates)),
		CaughtUp:   deck.CaughtUp,
	}
	for _, c := range deck.Candidates {
		resp.Candidates = append(resp.Candidates, pb.Candidate{
			UserID:      c.Profile.ID,
			DisplayName: c.Profile.DisplayName,
			Age:         c.Profile.Age,
			Bio:         c.Profile.Bio,
			PhotoRef:    c.Profile.PhotoRef,
			Overlap:     c.Overlap,
			Score:       c.Score,
			DistanceKM:  c.DistanceKM,
		})
	}
	return resp, nil
}

// RecordSwipe stores the session user's judgment and reports a match when the
// target already liked them back.
//
// Behavior:
//   - Every swipe spends the swipe budget; super likes also spend the
//     super-like budget.
//   - A repeated judgment is a no-op, but the match check still runs.
func (s *Service) RecordSwipe(ctx context.Context, req *pb.SwipeRequest) (*pb.SwipeResponse, error) {
	if err := pb.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	dir, err := domain.ParseDirection(req.Direction)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.ensureNotBlocked(ctx, userID, req.TargetUserID); err != nil {
		return nil, svcErr.Map(err)
	}

	actions := []ratelimit.Action{ratelimit.ActionSwipe}
	if dir == domain.DirectionSuper {
		actions = append(actions, ratelimit.ActionSuperLike)
	}
	if err := s.appCtx.Limiter.Allow(ctx, userID, actions...); err != nil {
		return nil, svcErr.Map(err)
	}

	res, err := s.swipes.RecordSwipeForSession(ctx, req.TargetUserID, dir)
	if err != nil {
		s.appCtx.Logger.Error("swipe failed", "user_id", userID, "target", req.TargetUserID, "err", err)
		return nil, svcErr.Map(err)
	}
	s.touch(ctx, userID)
	return swipeResponse(res), nil
}

// AcceptLike likes back a user from the liked-you inbox.
func (s *Service) AcceptLike(ctx context.Context, req *pb.AcceptLikeRequest) (*pb.SwipeResponse, error) {
	if err := pb.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.ensureNotBlocked(ctx, userID, req.LikerUserID); err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.Limiter.Allow(ctx, userID, ratelimit.ActionSwipe); err != nil {
		return nil, svcErr.Map(err)
	}

	res, err := s.swipes.AcceptLikeForSession(ctx, req.LikerUserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return swipeResponse(res), nil
}

// ensureNotBlocked refuses swipes and accepts between users with a block in
// either direction, so no match can form after a block.
func (s *Service) ensureNotBlocked(ctx context.Context, userID, otherID string) error {
	blocked, err := s.blocks.Between(ctx, userID, otherID)
	if err != nil {
		return fmt.Errorf("check blocks: %w", err)
	}
	if blocked {
		return fmt.Errorf("%s and %s: %w", userID, otherID, domain.ErrBlocked)
	}
	return nil
}

func swipeResponse(res swipe.Result) *pb.SwipeResponse {
	return &pb.SwipeResponse{
		Matched:     res.Matched,
		MatchID:     res.MatchID,
		OtherUserID: res.OtherID,
		Warnings:    res.Warnings,
	}
}

// ListLikedYou returns users who liked the session user and are still waiting
// for a judgment. Blocked users never appear.
//
// Example:
//
//	svc.ListLikedYou(ctx, &pb.ListLikedYouRequest{Limit: 10})
func (s *Service) ListLikedYou(ctx context.Context, req *pb.ListLikedYouRequest) (*pb.ListLikedYouResponse, error) {
	if err := pb.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Debug("ListLikedYou called", "recipient", userID, "token", req.PaginationToken)

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLikersPage
	}
	likers, next, err := s.swipeRepo.ListLikers(ctx, userID, req.PaginationToken, limit)
	if err != nil {
		s.appCtx.Logger.Error("ListLikers failed", "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &pb.ListLikedYouResponse{
		Likers:              make([]pb.Liker, 0, len(likers)),
		NextPaginationToken: next,
	}
	for _, l := range likers {
		resp.Likers = append(resp.Likers, pb.Liker{
			ActorID:       l.SwiperID,
			Super:         l.Direction == domain.DirectionSuper,
			UnixTimestamp: uint64(l.CreatedAt.UnixMilli()),
		})
	}
	return resp, nil
}

// CountLikedYou returns the size of the liked-you inbox.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID), refreshing its TTL.
//  2. On a miss or Redis failure, falls back to the database.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (s *Service) CountLikedYou(ctx context.Context, _ *pb.Empty) (*pb.CountLikedYouResponse, error) {
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	rc := s.appCtx.RedisCache
	if rc != nil {
		if n, ok, err := rc.GetLikeCount(ctx, userID); err == nil && ok {
			return &pb.CountLikedYouResponse{Count: uint64(n)}, nil
		}
	}

	count, err := s.swipeRepo.CountLikers(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if rc != nil {
		if err := rc.SetLikeCount(ctx, userID, count); err != nil {
			s.appCtx.Logger.Warn("cache like count", "user_id", userID, "err", err)
		}
	}
	return &pb.CountLikedYouResponse{Count: uint64(count)}, nil
}

// ListMatches returns the session user's matches, newest first, each with
// its unread count.
func (s *Service) ListMatches(ctx context.Context, _ *pb.Empty) (*pb.ListMatchesResponse, error) {
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	matches, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	unreadByMatch := s.unread.Counts(ctx, userID, ids)

	resp := &pb.ListMatchesResponse{Matches: make([]pb.Match, 0, len(matches))}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, pb.Match{
			MatchID:       m.ID,
			OtherUserID:   m.Other(userID),
			CreatedAtUnix: m.CreatedAt.Unix(),
			Unread:        unreadByMatch[m.ID],
		})
	}
	return resp, nil
}

// UnreadCounts returns unread totals per requested thread. Threads that fail
// to load report 0. Without a session the map is empty.
func (s *Service) UnreadCounts(ctx context.Context, req *pb.UnreadCountsRequest) (*pb.UnreadCountsResponse, error) {
	if err := pb.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}

	userID := auth.UserID(ctx)
	if userID == "" {
		return &pb.UnreadCountsResponse{Counts: map[string]int{}}, nil
	}

	// threads the caller is not part of report 0 without being counted
	counts := make(map[string]int, len(req.MatchIDs))
	mine := make([]string, 0, len(req.MatchIDs))
	for _, id := range req.MatchIDs {
		m, err := s.matches.Get(ctx, id)
		if err != nil || !m.Has(userID) {
			counts[id] = 0
			continue
		}
		mine = append(mine, id)
	}
	maps.Copy(counts, s.unread.Counts(ctx, userID, mine))
	return &pb.UnreadCountsResponse{Counts: counts}, nil
}

// MarkRead marks every message currently in the thread as read for the session user.
func (s *Service) MarkRead(ctx context.Context, req *pb.MarkReadRequest) (*pb.Empty, error) {
	if err := pb.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	m, err := s.matches.Get(ctx, req.MatchID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !m.Has(userID) {
		return nil, svcErr.Map(domain.ErrNotParticipant)
	}

	if err := s.unread.MarkRead(ctx, userID, req.MatchID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &pb.Empty{}, nil
}

func (s *Service) SendMessage(ctx context.Context, req *pb.SendMessageRequest) (*pb.Message, error) {
	if err := pb.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	msg, err := s.chat.Send(ctx, req.MatchID, req.Body)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out := messageView(msg)
	return &out, nil
}

func (s *Service) ListMessages(ctx context.Context, req *pb.ListMessagesRequest) (*pb.ListMessagesResponse, error) {
	if err := pb.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	msgs, next, err := s.chat.List(ctx, req.MatchID, req.PaginationToken, req.Limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &pb.ListMessagesResponse{
		Messages:            make([]pb.Message, 0, len(msgs)),
		NextPaginationToken: next,
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, messageView(m))
	}
	return resp, nil
}

func messageView(m db.Message) pb.Message {
	return pb.Message{
		ID:            m.ID,
		MatchID:       m.MatchID,
		SenderID:      m.SenderID,
		Body:          m.Body,
		CreatedAtUnix: m.CreatedAt.Unix(),
	}
}

// UpsertProfile creates or edits the session user's own profile.
func (s *Service) UpsertProfile(ctx context.Context, req *pb.UpsertProfileRequest) (*pb.Profile, error) {
	if err := pb.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, svcErr.InvalidArgument("latitude and longitude must be set together")
	}

	p := db.Profile{
		ID:           userID,
		DisplayName:  req.DisplayName,
		Age:          req.Age,
		Bio:          req.Bio,
		PhotoRef:     req.PhotoRef,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		LastActiveAt: s.now(),
	}
	if err := s.profiles.Upsert(ctx, &p); err != nil {
		return nil, svcErr.Map(err)
	}

	return &pb.Profile{
		UserID:       p.ID,
		DisplayName:  p.DisplayName,
		Age:          p.Age,
		Bio:          p.Bio,
		PhotoRef:     p.PhotoRef,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		LastActiveAt: p.LastActiveAt.Unix(),
	}, nil
}

func (s *Service) ListCategories(ctx context.Context, _ *pb.Empty) (*pb.ListCategoriesResponse, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &pb.ListCategoriesResponse{Categories: make([]pb.Category, 0, len(categories))}
	for _, c := range categories {
		resp.Categories = append(resp.Categories, pb.Category{ID: c.ID, Slug: c.Slug, Name: c.Name})
	}
	return resp, nil
}

// SaveCategories replaces the session user's interests wholesale.
//
// Behavior:
//   - Every id must name a known category, at most once.
//   - During onboarding the selection is capped at ONBOARDING_MAX_CATEGORIES.
//   - The cached category set of the user is dropped afterwards.
func (s *Service) SaveCategories(ctx context.Context, req *pb.SaveCategoriesRequest) (*pb.Empty, error) {
	if err := pb.Validate(req); err != nil {
		return nil, svcErr.Map(err)
	}
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if limit := s.appCtx.Config.Onboarding.MaxCategories; req.Onboarding && len(req.Selections) > limit {
		return nil, svcErr.InvalidArgument(fmt.Sprintf("pick at most %d categories", limit))
	}

	seen := make(map[uint]struct{}, len(req.Selections))
	ids := make([]uint, 0, len(req.Selections))
	rows := make([]db.UserCategory, 0, len(req.Selections))
	for _, sel := range req.Selections {
		if _, dup := seen[sel.CategoryID]; dup {
			return nil, svcErr.InvalidArgument(fmt.Sprintf("category %d selected twice", sel.CategoryID))
		}
		seen[sel.CategoryID] = struct{}{}
		ids = append(ids, sel.CategoryID)
		rows = append(rows, db.UserCategory{CategoryID: sel.CategoryID, Intensity: sel.Intensity, Active: true})
	}

	known, err := s.categories.CountExisting(ctx, ids)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if int(known) != len(ids) {
		return nil, svcErr.InvalidArgument("unknown category")
	}

	if err := s.categories.Replace(ctx, userID, rows); err != nil {
		return nil, svcErr.Map(err)
	}

	if rc := s.appCtx.RedisCache; rc != nil {
		if err := rc.InvalidateCategories(ctx, userID); err != nil {
			s.appCtx.Logger.Warn("invalidate category cache", "user_id", userID, "err", err)
		}
	}
	return &pb.Empty{}, nil
}

// Block hides the two users from each other's deck and inbox. Messaging,
// swiping and accepting likes between them fail with FailedPrecondition.
// Existing matches and messages are kept.
func (s *Service) Block(ctx context.Context, req *pb.BlockRequest) (*pb.Empty, error) {
	userID, err := s.blockTarget(ctx, req)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.blocks.Create(ctx, userID, req.UserID, s.now()); err != nil {
		return nil, svcErr.Map(err)
	}
	s.dropLikeCounts(ctx, userID, req.UserID)
	return &pb.Empty{}, nil
}

func (s *Service) Unblock(ctx context.Context, req *pb.BlockRequest) (*pb.Empty, error) {
	userID, err := s.blockTarget(ctx, req)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.blocks.Delete(ctx, userID, req.UserID); err != nil {
		return nil, svcErr.Map(err)
	}
	s.dropLikeCounts(ctx, userID, req.UserID)
	return &pb.Empty{}, nil
}

func (s *Service) blockTarget(ctx context.Context, req *pb.BlockRequest) (string, error) {
	if err := pb.Validate(req); err != nil {
		return "", err
	}
	userID, err := sessionUser(ctx)
	if err != nil {
		return "", err
	}
	if userID == req.UserID {
		return "", fmt.Errorf("cannot block yourself: %w", domain.ErrInvalidArgument)
	}
	return userID, nil
}

// DeleteAccount removes every row of the session user in one transaction.
func (s *Service) DeleteAccount(ctx context.Context, _ *pb.Empty) (*pb.Empty, error) {
	userID, err := sessionUser(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.accounts.Delete(ctx, userID); err != nil {
		s.appCtx.Logger.Error("delete account failed", "user_id", userID, "err", err)
		return nil, svcErr.Map(err)
	}

	if rc := s.appCtx.RedisCache; rc != nil {
		if err := rc.Del(ctx, rc.KeyForLikeCount(userID), rc.KeyForCategories(userID)); err != nil {
			s.appCtx.Logger.Warn("drop cached account keys", "user_id", userID, "err", err)
		}
	}
	s.appCtx.Logger.Info("account deleted", "user_id", userID)
	return &pb.Empty{}, nil
}

// dropLikeCounts invalidates cached liked-you counts; blocks change who is counted.
func (s *Service) dropLikeCounts(ctx context.Context, userIDs ...string) {
	rc := s.appCtx.RedisCache
	if rc == nil {
		return
	}
	for _, id := range userIDs {
		if err := rc.InvalidateLikeCount(ctx, id); err != nil {
			s.appCtx.Logger.Warn("invalidate like count", "user_id", id, "err", err)
		}
	}
}

// touch records activity for pool ordering. Failures only log.
func (s *Service) touch(ctx context.Context, userID string) {
	if err := s.profiles.Touch(ctx, userID, s.now()); err != nil {
		s.appCtx.Logger.Warn("touch profile", "user_id", userID, "err", err)
	}
}
