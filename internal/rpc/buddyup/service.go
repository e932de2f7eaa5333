package buddyup

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "buddyup.v1.BuddyUp"

// FullMethod returns the wire path of a BuddyUp method, e.g. "/buddyup.v1.BuddyUp/GetDeck".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// BuddyUpServer is the server API for the BuddyUp service.
type BuddyUpServer interface {
	GetDeck(context.Context, *DeckRequest) (*DeckResponse, error)
	RecordSwipe(context.Context, *SwipeRequest) (*SwipeResponse, error)
	AcceptLike(context.Context, *AcceptLikeRequest) (*SwipeResponse, error)
	ListLikedYou(context.Context, *ListLikedYouRequest) (*ListLikedYouResponse, error)
	CountLikedYou(context.Context, *Empty) (*CountLikedYouResponse, error)
	ListMatches(context.Context, *Empty) (*ListMatchesResponse, error)
	UnreadCounts(context.Context, *UnreadCountsRequest) (*UnreadCountsResponse, error)
	MarkRead(context.Context, *MarkReadRequest) (*Empty, error)
	SendMessage(context.Context, *SendMessageRequest) (*Message, error)
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
	UpsertProfile(context.Context, *UpsertProfileRequest) (*Profile, error)
	ListCategories(context.Context, *Empty) (*ListCategoriesResponse, error)
	SaveCategories(context.Context, *SaveCategoriesRequest) (*Empty, error)
	Block(context.Context, *BlockRequest) (*Empty, error)
	Unblock(context.Context, *BlockRequest) (*Empty, error)
	DeleteAccount(context.Context, *Empty) (*Empty, error)
}

// ServiceDesc is the grpc.ServiceDesc for the BuddyUp service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BuddyUpServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetDeck", BuddyUpServer.GetDeck),
		unary("RecordSwipe", BuddyUpServer.RecordSwipe),
		unary("AcceptLike", BuddyUpServer.AcceptLike),
		unary("ListLikedYou", BuddyUpServer.ListLikedYou),
		unary("CountLikedYou", BuddyUpServer.CountLikedYou),
		unary("ListMatches", BuddyUpServer.ListMatches),
		unary("UnreadCounts", BuddyUpServer.UnreadCounts),
		unary("MarkRead", BuddyUpServer.MarkRead),
		unary("SendMessage", BuddyUpServer.SendMessage),
		unary("ListMessages", BuddyUpServer.ListMessages),
		unary("UpsertProfile", BuddyUpServer.UpsertProfile),
		unary("ListCategories", BuddyUpServer.ListCategories),
		unary("SaveCategories", BuddyUpServer.SaveCategories),
		unary("Block", BuddyUpServer.Block),
		unary("Unblock", BuddyUpServer.Unblock),
		unary("DeleteAccount", BuddyUpServer.DeleteAccount),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterBuddyUpServer attaches srv to a grpc.Server (or any registrar).
func RegisterBuddyUpServer(s grpc.ServiceRegistrar, srv BuddyUpServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds the MethodDesc generated stubs would emit for a single
// request/response method.
func unary[Req, Resp any](name string, call func(BuddyUpServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BuddyUpServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BuddyUpServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls the BuddyUp service with the JSON codec selected.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDeck(ctx context.Context, in *DeckRequest, opts ...grpc.CallOption) (*DeckResponse, error) {
	return invoke[DeckResponse](ctx, c.cc, "GetDeck", in, opts)
}

func (c *Client) RecordSwipe(ctx context.Context, in *SwipeRequest, opts ...grpc.CallOption) (*SwipeResponse, error) {
	return invoke[SwipeResponse](ctx, c.cc, "RecordSwipe", in, opts)
}

func (c *Client) AcceptLike(ctx context.Context, in *AcceptLikeRequest, opts ...grpc.CallOption) (*SwipeResponse, error) {
	return invoke[SwipeResponse](ctx, c.cc, "AcceptLike", in, opts)
}

func (c *Client) ListLikedYou(ctx context.Context, in *ListLikedYouRequest, opts ...grpc.CallOption) (*ListLikedYouResponse, error) {
	return invoke[ListLikedYouResponse](ctx, c.cc, "ListLikedYou", in, opts)
}

func (c *Client) CountLikedYou(ctx context.Context, opts ...grpc.CallOption) (*CountLikedYouResponse, error) {
	return invoke[CountLikedYouResponse](ctx, c.cc, "CountLikedYou", &Empty{}, opts)
}

func (c *Client) ListMatches(ctx context.Context, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c.cc, "ListMatches", &Empty{}, opts)
}

func (c *Client) UnreadCounts(ctx context.Context, in *UnreadCountsRequest, opts ...grpc.CallOption) (*UnreadCountsResponse, error) {
	return invoke[UnreadCountsResponse](ctx, c.cc, "UnreadCounts", in, opts)
}

func (c *Client) MarkRead(ctx context.Context, in *MarkReadRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, "MarkRead", in, opts)
	return err
}

func (c *Client) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*Message, error) {
	return invoke[Message](ctx, c.cc, "SendMessage", in, opts)
}

func (c *Client) ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c.cc, "ListMessages", in, opts)
}

func (c *Client) UpsertProfile(ctx context.Context, in *UpsertProfileRequest, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c.cc, "UpsertProfile", in, opts)
}

func (c *Client) ListCategories(ctx context.Context, opts ...grpc.CallOption) (*ListCategoriesResponse, error) {
	return invoke[ListCategoriesResponse](ctx, c.cc, "ListCategories", &Empty{}, opts)
}

func (c *Client) SaveCategories(ctx context.Context, in *SaveCategoriesRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, "SaveCategories", in, opts)
	return err
}

func (c *Client) Block(ctx context.Context, in *BlockRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, "Block", in, opts)
	return err
}

func (c *Client) Unblock(ctx context.Context, in *BlockRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, "Unblock", in, opts)
	return err
}

func (c *Client) DeleteAccount(ctx context.Context, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, "DeleteAccount", &Empty{}, opts)
	return err
}
