// Package rpc is the wire contract of the oracle service. Messages travel as
// JSON through a registered gRPC codec, so no generated code is needed.
package rpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	ServiceName     = "komisearch.Oracle"
	queryMethod     = "Query"
	QueryFullMethod = "/" + ServiceName + "/" + queryMethod
	CodecName       = "json"
)

type Stone struct {
	Color string `json:"color"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
}

type QueryRequest struct {
	BoardSize int     `json:"board_size"`
	Stones    []Stone `json:"stones"`
	Komi      float64 `json:"komi"`
}

type QueryReply struct {
	ScoreLead float64 `json:"score_lead"`
	Winrate   float64 `json:"winrate"`
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type OracleServer interface {
	Query(ctx context.Context, in *QueryRequest) (*QueryReply, error)
}

func RegisterOracleServer(s grpc.ServiceRegistrar, srv OracleServer) {
	s.RegisterService(&oracleServiceDesc, srv)
}

func queryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(QueryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OracleServer).Query(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: QueryFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OracleServer).Query(ctx, req.(*QueryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var oracleServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OracleServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: queryMethod,
			Handler:    queryHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "komisearch/oracle",
}

type OracleServiceClient interface {
	Query(ctx context.Context, in *QueryRequest, opts ...grpc.CallOption) (*QueryReply, error)
}

type oracleServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOracleServiceClient(cc grpc.ClientConnInterface) OracleServiceClient {
	return &oracleServiceClient{cc: cc}
}

func (c *oracleServiceClient) Query(ctx context.Context, in *QueryRequest, opts ...grpc.CallOption) (*QueryReply, error) {
	out := new(QueryReply)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, QueryFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
