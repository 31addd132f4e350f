package match

import (
	"google.golang.org/grpc"

	"github.com/david-shiko/rubik-sub000/internal/app"
)

// Registrar ties the Match service into the gRPC server
type Registrar struct {
	appCtx   *app.AppContext
	sessions *Sessions
}

// NewRegistrar creates a new Registrar for the Match service
func NewRegistrar(appCtx *app.AppContext, sessions *Sessions) *Registrar {
	return &Registrar{appCtx: appCtx, sessions: sessions}
}

// Register attaches the Match service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	service := NewMatchService(r.appCtx, r.sessions)
	RegisterMatchServiceServer(s, service)
}
