package api

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/keyval/internal/session"
	"github.com/heysubinoy/keyval/pkg/client"
	"github.com/heysubinoy/keyval/pkg/kv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// KeyValServer is the server API for the keyval.v1.KeyVal service.
type KeyValServer interface {
	Get(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Set(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Stats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// GRPCServer implements KeyValServer.
// It wraps a kv.Store and exposes it over gRPC, sharing counters with HTTP.
type GRPCServer struct {
	Store         kv.Store
	Counters      session.Counters
	Logger        hclog.Logger
	MaxValueBytes int
}

var _ KeyValServer = (*GRPCServer)(nil)

// NewGRPCServer creates a new gRPC server with the given store.
func NewGRPCServer(store kv.Store, counters session.Counters, logger hclog.Logger) *GRPCServer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GRPCServer{
		Store:         store,
		Counters:      counters,
		Logger:        logger,
		MaxValueBytes: kv.MaxValueBytes,
	}
}

// Register attaches the service to s.
func (s *GRPCServer) Register(srv *grpc.Server) {
	srv.RegisterService(&keyValServiceDesc, s)
}

// Get retrieves a value by key. An unknown key is not an error.
func (s *GRPCServer) Get(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	s.Counters.IncrementReads()
	key := req.GetValue()
	if key == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}

	value, err := s.Store.Get(key)
	found := err == nil
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		s.Logger.Error("read failed", "key", key, "error", err)
		return nil, status.Error(codes.Internal, "failed to read key")
	}

	return structpb.NewStruct(map[string]any{
		"value": value,
		"found": found,
	})
}

// Set stores a key-value pair. Expects fields "key" and "value".
func (s *GRPCServer) Set(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	s.Counters.IncrementWrites()
	fields := req.GetFields()
	key := fields["key"].GetStringValue()
	value := fields["value"].GetStringValue()
	if key == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}

	switch err := checkValue(value, s.MaxValueBytes); {
	case errors.Is(err, ErrPayloadTooLarge):
		return nil, status.Error(codes.ResourceExhausted, err.Error())
	case err != nil:
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.Store.Set(key, value); err != nil {
		s.Logger.Error("write failed", "key", key, "error", err)
		return nil, status.Error(codes.Internal, "failed to set key")
	}
	return &emptypb.Empty{}, nil
}

// Stats returns the same information as the HTTP /stats endpoint.
func (s *GRPCServer) Stats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := CollectStats(s.Store, s.Counters, s.Logger)
	fields := map[string]any{
		"keys":         st.Keys,
		"reads":        st.Reads,
		"writes":       st.Writes,
		"uptime_hours": st.UptimeHours,
		"size_bytes":   st.SizeBytes,
		"size":         st.Size,
	}
	if !st.StartedAt.IsZero() {
		fields["started_at"] = st.StartedAt.Format(time.RFC3339)
	}
	return structpb.NewStruct(fields)
}

func getHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KeyValServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: client.GetMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(KeyValServer).Get(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func setHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KeyValServer).Set(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: client.SetMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(KeyValServer).Set(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func statsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KeyValServer).Stats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: client.StatsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(KeyValServer).Stats(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var keyValServiceDesc = grpc.ServiceDesc{
	ServiceName: client.ServiceName,
	HandlerType: (*KeyValServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Get", Handler: getHandler},
		{MethodName: "Set", Handler: setHandler},
		{MethodName: "Stats", Handler: statsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "keyval.proto",
}
