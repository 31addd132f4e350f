package match

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "rubik.match.v1.MatchService"

// MatchServiceServer is the server API of the match service.
type MatchServiceServer interface {
	Search(context.Context, *structpb.Struct) (*structpb.Struct, error)
	NextMatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetFilters(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Vote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PostCounters(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreatePost(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Stats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCollection(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCollections(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DefaultCollections(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(MatchServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MatchServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(MatchServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// MatchServiceDesc describes the service for grpc.Server.RegisterService.
var MatchServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*MatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Search", MatchServiceServer.Search),
		unaryHandler("NextMatch", MatchServiceServer.NextMatch),
		unaryHandler("SetFilters", MatchServiceServer.SetFilters),
		unaryHandler("Vote", MatchServiceServer.Vote),
		unaryHandler("PostCounters", MatchServiceServer.PostCounters),
		unaryHandler("CreatePost", MatchServiceServer.CreatePost),
		unaryHandler("Stats", MatchServiceServer.Stats),
		unaryHandler("CreateCollection", MatchServiceServer.CreateCollection),
		unaryHandler("ListCollections", MatchServiceServer.ListCollections),
		unaryHandler("DefaultCollections", MatchServiceServer.DefaultCollections),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rubik/match/v1/match.proto",
}

// RegisterMatchServiceServer registers srv on s.
func RegisterMatchServiceServer(s grpc.ServiceRegistrar, srv MatchServiceServer) {
	s.RegisterService(&MatchServiceDesc, srv)
}
