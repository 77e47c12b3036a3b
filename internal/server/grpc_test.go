package server

import (
	"context"
	"net"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/bol-extractor/constants"
	"github.com/joseph-ayodele/bol-extractor/internal/repository"
)

func startGRPC(t *testing.T, jobs repository.ExtractJobRepository) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs, _ := NewGRPCServer(NewExtractionServer(newTestProcessor(jobs), 1, nil), nil)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGRPCExtractText(t *testing.T) {
	client := NewExtractionServiceClient(startGRPC(t, nil))

	out, err := client.ExtractText(context.Background(), wrapperspb.String(sampleText))
	require.NoError(t, err)
	m := out.AsMap()
	assert.Equal(t, "MEDUP1966175", m["bill_of_lading_number"])
	assert.Equal(t, "INTERCROMA SA", m["shipper"])
	assert.Len(t, m["containers"], 2)

	out, err = client.ExtractText(context.Background(), wrapperspb.String(""))
	require.NoError(t, err)
	m = out.AsMap()
	assert.Contains(t, m, "shipper")
	assert.Nil(t, m["shipper"])
	assert.Equal(t, []any{}, m["containers"])
}

func TestGRPCExtractTextTooLong(t *testing.T) {
	client := NewExtractionServiceClient(startGRPC(t, nil))

	_, err := client.ExtractText(context.Background(), wrapperspb.String(strings.Repeat("x", 1<<20+1)))
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Contains(t, st.Message(), "text")
}

func TestGRPCExtractPDF(t *testing.T) {
	_, jobs := openJobs(t)
	client := NewExtractionServiceClient(startGRPC(t, jobs))

	ctx := metadata.AppendToOutgoingContext(context.Background(), FilenameMetadataKey, "065-2024.pdf")
	var header metadata.MD
	out, err := client.ExtractPDF(ctx, wrapperspb.Bytes(fakePDF), grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, "MUSCAT WOODEN PALLETS L.L.C.", out.AsMap()["consignee"])

	ids := header.Get("x-job-id")
	require.Len(t, ids, 1)
	job, err := jobs.Get(context.Background(), uuid.MustParse(ids[0]))
	require.NoError(t, err)
	assert.Equal(t, "065-2024.pdf", job.Filename)
	assert.Equal(t, string(constants.JobStatusParsed), job.Status)
}

func TestGRPCExtractPDFErrors(t *testing.T) {
	client := NewExtractionServiceClient(startGRPC(t, nil))
	ctx := context.Background()

	tests := []struct {
		name    string
		content []byte
		code    codes.Code
		msg     string
	}{
		{name: "empty", content: nil, code: codes.InvalidArgument},
		{name: "not a pdf", content: []byte("hello"), code: codes.InvalidArgument, msg: "Invalid file type. Please upload a PDF."},
		{name: "corrupt pdf", content: []byte("%PDF-1.4 garbage"), code: codes.Internal, msg: "malformed PDF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ExtractPDF(ctx, wrapperspb.Bytes(tt.content))
			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
			if tt.msg != "" {
				assert.Equal(t, tt.msg, st.Message())
			}
		})
	}
}

func TestGRPCHealth(t *testing.T) {
	hc := healthpb.NewHealthClient(startGRPC(t, nil))
	resp, err := hc.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ExtractionServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
