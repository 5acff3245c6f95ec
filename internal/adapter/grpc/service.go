package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully-qualified gRPC service name
const ServiceName = "lotwise.v1.LotwiseService"

// LotwiseServiceServer is the server API for LotwiseService
type LotwiseServiceServer interface {
	AddLot(context.Context, *AddLotRequest) (*AddLotResponse, error)
	DisposeLot(context.Context, *DisposeLotRequest) (*DisposeLotResponse, error)
	RemoveLot(context.Context, *RemoveLotRequest) (*RemoveLotResponse, error)
	AnnotateLot(context.Context, *AnnotateLotRequest) (*AnnotateLotResponse, error)
	ListLots(context.Context, *ListLotsRequest) (*ListLotsResponse, error)
	GetGainReport(context.Context, *GetGainReportRequest) (*GetGainReportResponse, error)
	GetWashSales(context.Context, *GetWashSalesRequest) (*GetWashSalesResponse, error)
	GetHarvest(context.Context, *GetHarvestRequest) (*GetHarvestResponse, error)
	RecordSnapshot(context.Context, *RecordSnapshotRequest) (*RecordSnapshotResponse, error)
	GetAttribution(context.Context, *GetAttributionRequest) (*GetAttributionResponse, error)
	GetTrend(context.Context, *GetTrendRequest) (*GetTrendResponse, error)
}

// UnimplementedLotwiseServiceServer returns Unimplemented for every method.
// Embed it to stay compatible when methods are added.
type UnimplementedLotwiseServiceServer struct{}

func (UnimplementedLotwiseServiceServer) AddLot(context.Context, *AddLotRequest) (*AddLotResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AddLot not implemented")
}
func (UnimplementedLotwiseServiceServer) DisposeLot(context.Context, *DisposeLotRequest) (*DisposeLotResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DisposeLot not implemented")
}
func (UnimplementedLotwiseServiceServer) RemoveLot(context.Context, *RemoveLotRequest) (*RemoveLotResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveLot not implemented")
}
func (UnimplementedLotwiseServiceServer) AnnotateLot(context.Context, *AnnotateLotRequest) (*AnnotateLotResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AnnotateLot not implemented")
}
func (UnimplementedLotwiseServiceServer) ListLots(context.Context, *ListLotsRequest) (*ListLotsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListLots not implemented")
}
func (UnimplementedLotwiseServiceServer) GetGainReport(context.Context, *GetGainReportRequest) (*GetGainReportResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetGainReport not implemented")
}
func (UnimplementedLotwiseServiceServer) GetWashSales(context.Context, *GetWashSalesRequest) (*GetWashSalesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetWashSales not implemented")
}
func (UnimplementedLotwiseServiceServer) GetHarvest(context.Context, *GetHarvestRequest) (*GetHarvestResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetHarvest not implemented")
}
func (UnimplementedLotwiseServiceServer) RecordSnapshot(context.Context, *RecordSnapshotRequest) (*RecordSnapshotResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RecordSnapshot not implemented")
}
func (UnimplementedLotwiseServiceServer) GetAttribution(context.Context, *GetAttributionRequest) (*GetAttributionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAttribution not implemented")
}
func (UnimplementedLotwiseServiceServer) GetTrend(context.Context, *GetTrendRequest) (*GetTrendResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetTrend not implemented")
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unaryHandler adapts a typed server method to a grpc.MethodHandler
func unaryHandler[Req, Resp any](method string, call func(LotwiseServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LotwiseServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LotwiseServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LotwiseServiceDesc is the grpc.ServiceDesc for LotwiseService
var LotwiseServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LotwiseServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddLot", Handler: unaryHandler("AddLot", LotwiseServiceServer.AddLot)},
		{MethodName: "DisposeLot", Handler: unaryHandler("DisposeLot", LotwiseServiceServer.DisposeLot)},
		{MethodName: "RemoveLot", Handler: unaryHandler("RemoveLot", LotwiseServiceServer.RemoveLot)},
		{MethodName: "AnnotateLot", Handler: unaryHandler("AnnotateLot", LotwiseServiceServer.AnnotateLot)},
		{MethodName: "ListLots", Handler: unaryHandler("ListLots", LotwiseServiceServer.ListLots)},
		{MethodName: "GetGainReport", Handler: unaryHandler("GetGainReport", LotwiseServiceServer.GetGainReport)},
		{MethodName: "GetWashSales", Handler: unaryHandler("GetWashSales", LotwiseServiceServer.GetWashSales)},
		{MethodName: "GetHarvest", Handler: unaryHandler("GetHarvest", LotwiseServiceServer.GetHarvest)},
		{MethodName: "RecordSnapshot", Handler: unaryHandler("RecordSnapshot", LotwiseServiceServer.RecordSnapshot)},
		{MethodName: "GetAttribution", Handler: unaryHandler("GetAttribution", LotwiseServiceServer.GetAttribution)},
		{MethodName: "GetTrend", Handler: unaryHandler("GetTrend", LotwiseServiceServer.GetTrend)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lotwise/v1/lotwise",
}

// RegisterLotwiseServiceServer registers srv on s
func RegisterLotwiseServiceServer(s grpc.ServiceRegistrar, srv LotwiseServiceServer) {
	s.RegisterService(&LotwiseServiceDesc, srv)
}

// LotwiseServiceClient is the client API for LotwiseService.
// Every call is sent with the JSON content-subtype.
type LotwiseServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLotwiseServiceClient creates a client over cc
func NewLotwiseServiceClient(cc grpc.ClientConnInterface) *LotwiseServiceClient {
	return &LotwiseServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *LotwiseServiceClient, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LotwiseServiceClient) AddLot(ctx context.Context, in *AddLotRequest, opts ...grpc.CallOption) (*AddLotResponse, error) {
	return invoke[AddLotResponse](ctx, c, "AddLot", in, opts)
}

func (c *LotwiseServiceClient) DisposeLot(ctx context.Context, in *DisposeLotRequest, opts ...grpc.CallOption) (*DisposeLotResponse, error) {
	return invoke[DisposeLotResponse](ctx, c, "DisposeLot", in, opts)
}

func (c *LotwiseServiceClient) RemoveLot(ctx context.Context, in *RemoveLotRequest, opts ...grpc.CallOption) (*RemoveLotResponse, error) {
	return invoke[RemoveLotResponse](ctx, c, "RemoveLot", in, opts)
}

func (c *LotwiseServiceClient) AnnotateLot(ctx context.Context, in *AnnotateLotRequest, opts ...grpc.CallOption) (*AnnotateLotResponse, error) {
	return invoke[AnnotateLotResponse](ctx, c, "AnnotateLot", in, opts)
}

func (c *LotwiseServiceClient) ListLots(ctx context.Context, in *ListLotsRequest, opts ...grpc.CallOption) (*ListLotsResponse, error) {
	return invoke[ListLotsResponse](ctx, c, "ListLots", in, opts)
}

func (c *LotwiseServiceClient) GetGainReport(ctx context.Context, in *GetGainReportRequest, opts ...grpc.CallOption) (*GetGainReportResponse, error) {
	return invoke[GetGainReportResponse](ctx, c, "GetGainReport", in, opts)
}

func (c *LotwiseServiceClient) GetWashSales(ctx context.Context, in *GetWashSalesRequest, opts ...grpc.CallOption) (*GetWashSalesResponse, error) {
	return invoke[GetWashSalesResponse](ctx, c, "GetWashSales", in, opts)
}

func (c *LotwiseServiceClient) GetHarvest(ctx context.Context, in *GetHarvestRequest, opts ...grpc.CallOption) (*GetHarvestResponse, error) {
	return invoke[GetHarvestResponse](ctx, c, "GetHarvest", in, opts)
}

func (c *LotwiseServiceClient) RecordSnapshot(ctx context.Context, in *RecordSnapshotRequest, opts ...grpc.CallOption) (*RecordSnapshotResponse, error) {
	return invoke[RecordSnapshotResponse](ctx, c, "RecordSnapshot", in, opts)
}

func (c *LotwiseServiceClient) GetAttribution(ctx context.Context, in *GetAttributionRequest, opts ...grpc.CallOption) (*GetAttributionResponse, error) {
	return invoke[GetAttributionResponse](ctx, c, "GetAttribution", in, opts)
}

func (c *LotwiseServiceClient) GetTrend(ctx context.Context, in *GetTrendRequest, opts ...grpc.CallOption) (*GetTrendResponse, error) {
	return invoke[GetTrendResponse](ctx, c, "GetTrend", in, opts)
}
