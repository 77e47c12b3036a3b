package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/bol-extractor/internal/bol"
	"github.com/joseph-ayodele/bol-extractor/internal/common"
	"github.com/joseph-ayodele/bol-extractor/internal/pipeline"
)

const (
	ExtractionServiceName = "bol.v1.ExtractionService"

	extractTextMethod = "/" + ExtractionServiceName + "/ExtractText"
	extractPDFMethod  = "/" + ExtractionServiceName + "/ExtractPDF"

	// FilenameMetadataKey names the uploaded document in ExtractPDF calls.
	FilenameMetadataKey = "x-filename"
)

// ExtractionServiceServer answers with the shaped result as a Struct.
type ExtractionServiceServer interface {
	ExtractText(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ExtractPDF(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
}

// ExtractionServiceDesc uses well-known wrapper types, so no generated code is needed.
var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ExtractionServiceName,
	HandlerType: (*ExtractionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExtractText", Handler: extractTextHandler},
		{MethodName: "ExtractPDF", Handler: extractPDFHandler},
	},
	Streams:  []grpc.StreamDesc{},
}

func RegisterExtractionServiceServer(s grpc.ServiceRegistrar, srv ExtractionServiceServer) {
	s.RegisterService(&ExtractionServiceDesc, srv)
}

func extractTextHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionServiceServer).ExtractText(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: extractTextMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExtractionServiceServer).ExtractText(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func extractPDFHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractionServiceServer).ExtractPDF(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: extractPDFMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ExtractionServiceServer).ExtractPDF(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// ExtractionServiceClient is the client side of ExtractionServiceDesc.
type ExtractionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractionServiceClient(cc grpc.ClientConnInterface) *ExtractionServiceClient {
	return &ExtractionServiceClient{cc: cc}
}

func (c *ExtractionServiceClient) ExtractText(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, extractTextMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExtractionServiceClient) ExtractPDF(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, extractPDFMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type ExtractionServer struct {
	proc        *pipeline.Processor
	maxUploadMB int
	logger      *slog.Logger
}

var _ ExtractionServiceServer = (*ExtractionServer)(nil)

func NewExtractionServer(proc *pipeline.Processor, maxUploadMB int, logger *slog.Logger) *ExtractionServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionServer{proc: proc, maxUploadMB: maxUploadMB, logger: logger}
}

// ExtractText parses already extracted text of at most MaxUploadMB mebi-characters.
func (s *ExtractionServer) ExtractText(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	v := common.NewValidator().Field("text", req.GetValue(), common.MaxLength(s.maxUploadMB<<20))
	if err := v.Error(); err != nil {
		return nil, common.GRPCError(err)
	}
	return toStruct(s.proc.ProcessText(ctx, req.GetValue()))
}

func (s *ExtractionServer) ExtractPDF(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	content := req.GetValue()
	v := common.NewValidator().Field("content", content, common.Required, common.MaxBytes(int64(s.maxUploadMB)<<20))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	if v.Field("content", content, common.PDFHeader).HasErrors() {
		return nil, common.InvalidArgumentError(common.MsgInvalidFileType)
	}

	out, err := s.proc.ProcessPDF(ctx, incomingFilename(ctx), content)
	if out.JobID != uuid.Nil {
		_ = grpc.SetHeader(ctx, metadata.Pairs("x-job-id", out.JobID.String()))
	}
	if err != nil {
		return nil, common.GRPCError(err)
	}
	return toStruct(out.Result)
}

func toStruct(res bol.Result) (*structpb.Struct, error) {
	m, err := res.Map()
	if err != nil {
		return nil, common.InternalErrorf("encode result: %v", err)
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalErrorf("encode result: %v", err)
	}
	return st, nil
}

func incomingFilename(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(FilenameMetadataKey); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return "upload.pdf"
}

// NewGRPCServer builds a server with the extraction and health services registered.
func NewGRPCServer(srv ExtractionServiceServer, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(loggingInterceptor(logger))}, opts...)
	gs := grpc.NewServer(opts...)
	RegisterExtractionServiceServer(gs, srv)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ExtractionServiceName, healthpb.HealthCheckResponse_SERVING)
	return gs, hs
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		reqID := uuid.NewString()
		resp, err := handler(common.WithRequestID(ctx, reqID), req)
		logger.Info("grpc request",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"request_id", reqID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
