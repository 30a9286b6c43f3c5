package grpc

import (
	"context"

	"github.com/TomasB/ip2geo/internal/engine"
	"github.com/TomasB/ip2geo/internal/geo"
	"github.com/TomasB/ip2geo/internal/handler/lookup"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName     = "ip2geo.v1.LookupService"
	batchMethodName = "/" + serviceName + "/Batch"
)

// LookupServiceServer is the server API for ip2geo.v1.LookupService.
type LookupServiceServer interface {
	// Batch takes a list of address strings and returns one value per
	// entry: a struct holding every record field, or null when the entry
	// could not be resolved.
	Batch(context.Context, *structpb.ListValue) (*structpb.ListValue, error)
}

// ServiceDesc describes ip2geo.v1.LookupService. Messages are protobuf
// well-known types so no generated code is needed.
var ServiceDesc = gogrpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LookupServiceServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{
			MethodName: "Batch",
			Handler:    batchHandler,
		},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "ip2geo/v1/lookup.proto",
}

func batchHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.ListValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LookupServiceServer).Batch(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: batchMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LookupServiceServer).Batch(ctx, req.(*structpb.ListValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Register registers h on s.
func Register(s gogrpc.ServiceRegistrar, h LookupServiceServer) {
	s.RegisterService(&ServiceDesc, h)
}

// Batch invokes ip2geo.v1.LookupService/Batch on cc.
func Batch(ctx context.Context, cc gogrpc.ClientConnInterface, ips []string, opts ...gogrpc.CallOption) (*structpb.ListValue, error) {
	in := &structpb.ListValue{Values: make([]*structpb.Value, len(ips))}
	for i, ip := range ips {
		in.Values[i] = structpb.NewStringValue(ip)
	}
	out := new(structpb.ListValue)
	if err := cc.Invoke(ctx, batchMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Handler implements LookupServiceServer on top of the batch engine.
type Handler struct {
	resolver lookup.Resolver
}

// NewHandler creates a new gRPC handler backed by resolver.
func NewHandler(resolver lookup.Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// Batch resolves every string in req, preserving order.
func (h *Handler) Batch(ctx context.Context, req *structpb.ListValue) (*structpb.ListValue, error) {
	if req == nil || len(req.Values) == 0 {
		return nil, status.Error(codes.InvalidArgument, "ips are required")
	}
	if len(req.Values) > lookup.MaxBatchSize {
		return nil, status.Errorf(codes.InvalidArgument, "at most %d ips per batch", lookup.MaxBatchSize)
	}

	lines := make([]string, len(req.Values))
	for i, v := range req.Values {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "entry %d is not a string", i)
		}
		lines[i] = s.StringValue
	}

	results, err := h.resolver.RunBatch(ctx, lines)
	if err != nil {
		return nil, status.Error(codes.Internal, "lookup failed")
	}

	out := &structpb.ListValue{Values: make([]*structpb.Value, len(results))}
	for i, r := range results {
		if !r.Outcome.Resolved() {
			out.Values[i] = structpb.NewNullValue()
			continue
		}
		out.Values[i] = structpb.NewStructValue(recordStruct(r.Record))
	}
	return out, nil
}

func recordStruct(rec geo.Record) *structpb.Struct {
	fields := make(map[string]*structpb.Value, len(geo.Fields))
	for _, name := range geo.Fields {
		v, _ := rec.Get(name)
		fields[name] = structpb.NewStringValue(v)
	}
	return &structpb.Struct{Fields: fields}
}

var _ LookupServiceServer = (*Handler)(nil)

// engine.Engine is the production resolver.
var _ lookup.Resolver = (*engine.Engine)(nil)
