package buddyup

// Requests carry validate tags checked by Validate before any service call.
// The session user always comes from the bearer token, never from a request field.

type Empty struct{}

type DeckRequest struct {
	Offset        int     `json:"offset" validate:"gte=0"`
	Limit         int     `json:"limit" validate:"gte=0,lte=100"`
	MaxDistanceKM float64 `json:"max_distance_km" validate:"gte=0"`
	// SeenUserIDs are candidates the client already holds; Offset then counts
	// only the remaining ones.
	SeenUserIDs []string `json:"seen_user_ids,omitempty" validate:"max=1000,dive,required"`
}

type Candidate struct {
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Age         int      `json:"age"`
	Bio         string   `json:"bio,omitempty"`
	PhotoRef    string   `json:"photo_ref,omitempty"`
	Overlap     int      `json:"overlap"`
	Score       int      `json:"score"`
	DistanceKM  *float64 `json:"distance_km,omitempty"`
}

type DeckResponse struct {
	Candidates []Candidate `json:"candidates"`
	CaughtUp   bool        `json:"caught_up"`
}

type SwipeRequest struct {
	TargetUserID string `json:"target_user_id" validate:"required,max=64"`
	Direction    string `json:"direction" validate:"required,oneof=left right super LEFT RIGHT SUPER"`
}

type SwipeResponse struct {
	Matched     bool     `json:"matched"`
	MatchID     string   `json:"match_id,omitempty"`
	OtherUserID string   `json:"other_user_id,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

type AcceptLikeRequest struct {
	LikerUserID string `json:"liker_user_id" validate:"required,max=64"`
}

type ListLikedYouRequest struct {
	PaginationToken string `json:"pagination_token,omitempty"`
	Limit           int    `json:"limit" validate:"gte=0,lte=100"`
}

type Liker struct {
	ActorID       string `json:"actor_id"`
	Super         bool   `json:"super"`
	UnixTimestamp uint64 `json:"unix_timestamp"`
}

type ListLikedYouResponse struct {
	Likers              []Liker `json:"likers"`
	NextPaginationToken string  `json:"next_pagination_token,omitempty"`
}

type CountLikedYouResponse struct {
	Count uint64 `json:"count"`
}

type Match struct {
	MatchID       string `json:"match_id"`
	OtherUserID   string `json:"other_user_id"`
	CreatedAtUnix int64  `json:"created_at_unix"`
	Unread        int    `json:"unread"`
}

type ListMatchesResponse struct {
	Matches []Match `json:"matches"`
}

type UnreadCountsRequest struct {
	MatchIDs []string `json:"match_ids" validate:"max=200,dive,required"`
}

type UnreadCountsResponse struct {
	Counts map[string]int `json:"counts"`
}

type MarkReadRequest struct {
	MatchID string `json:"match_id" validate:"required"`
}

type SendMessageRequest struct {
	MatchID string `json:"match_id" validate:"required"`
	// length is checked after trimming by the chat service
	Body string `json:"body" validate:"required"`
}

type Message struct {
	ID            string `json:"id"`
	MatchID       string `json:"match_id"`
	SenderID      string `json:"sender_id"`
	Body          string `json:"body"`
	CreatedAtUnix int64  `json:"created_at_unix"`
}

type ListMessagesRequest struct {
	MatchID         string `json:"match_id" validate:"required"`
	PaginationToken string `json:"pagination_token,omitempty"`
	Limit           int    `json:"limit" validate:"gte=0,lte=100"`
}

type ListMessagesResponse struct {
	Messages            []Message `json:"messages"`
	NextPaginationToken string    `json:"next_pagination_token,omitempty"`
}

type UpsertProfileRequest struct {
	DisplayName string   `json:"display_name" validate:"required,max=64"`
	Age         int      `json:"age" validate:"gte=18,lte=120"`
	Bio         string   `json:"bio" validate:"max=500"`
	PhotoRef    string   `json:"photo_ref" validate:"max=255"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

type Profile struct {
	UserID       string   `json:"user_id"`
	DisplayName  string   `json:"display_name"`
	Age          int      `json:"age"`
	Bio          string   `json:"bio,omitempty"`
	PhotoRef     string   `json:"photo_ref,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	LastActiveAt int64    `json:"last_active_at"`
}

type Category struct {
	ID   uint   `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type ListCategoriesResponse struct {
	Categories []Category `json:"categories"`
}

type CategorySelection struct {
	CategoryID uint `json:"category_id" validate:"required"`
	Intensity  int  `json:"intensity" validate:"gte=1,lte=5"`
}

type SaveCategoriesRequest struct {
	Selections []CategorySelection `json:"selections" validate:"max=50,dive"`
	Onboarding bool                `json:"onboarding"`
}

type BlockRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
}
