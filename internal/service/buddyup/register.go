package buddyup

import (
	"google.golang.org/grpc"

	"github.com/oggyb/buddyup/internal/app"
	pb "github.com/oggyb/buddyup/internal/rpc/buddyup"
)

// Registrar ties the BuddyUp service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the BuddyUp service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the BuddyUp service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	pb.RegisterBuddyUpServer(s, NewBuddyUpService(r.appCtx))
}
