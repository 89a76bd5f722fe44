package paraphrase

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/rules"
)

// Payloads travel as google.protobuf.Struct so no generated stubs are needed.
const (
	paraphraseServiceName = "mcttrener.paraphrase.v1.Paraphraser"
	paraphraseMethod      = "/" + paraphraseServiceName + "/Paraphrase"
)

// #region client

// GRPCParaphraser calls a remote Paraphraser service.
type GRPCParaphraser struct {
	conn *grpc.ClientConn
}

// NewGRPCParaphraser connects to a paraphrase gRPC server.
func NewGRPCParaphraser(addr string, opts ...grpc.DialOption) (*GRPCParaphraser, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &GRPCParaphraser{conn: conn}, nil
}

// Close shuts down the gRPC connection.
func (g *GRPCParaphraser) Close() error {
	return g.conn.Close()
}

// Paraphrase sends the request over gRPC.
func (g *GRPCParaphraser) Paraphrase(ctx context.Context, req Request) (Response, error) {
	in, err := requestToStruct(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := g.conn.Invoke(ctx, paraphraseMethod, in, out); err != nil {
		return Response{}, fmt.Errorf("paraphrase rpc: %w", err)
	}
	resp := structToResponse(out)
	if !resp.OK || resp.Reply == "" {
		return resp, ErrNoReply
	}
	resp.Reply = flatten(resp.Reply)
	return resp, nil
}

// #endregion client

// #region server

// ParaphraseServer is the server side of the Paraphraser service.
type ParaphraseServer interface {
	Paraphrase(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// RegisterParaphraseServer registers srv on s.
func RegisterParaphraseServer(s grpc.ServiceRegistrar, srv ParaphraseServer) {
	s.RegisterService(&paraphraserServiceDesc, srv)
}

// NewParaphraseService exposes any Paraphraser as a ParaphraseServer.
func NewParaphraseService(p Paraphraser) ParaphraseServer {
	return &serviceAdapter{p: p}
}

type serviceAdapter struct {
	p Paraphraser
}

func (s *serviceAdapter) Paraphrase(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := structToRequest(in)
	if req.RuleReply == "" {
		return nil, status.Error(codes.InvalidArgument, "missing rule_reply")
	}
	resp, err := s.p.Paraphrase(ctx, req)
	if err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return structpb.NewStruct(map[string]any{"ok": resp.OK, "reply": resp.Reply})
}

func paraphraseHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ParaphraseServer).Paraphrase(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: paraphraseMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ParaphraseServer).Paraphrase(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var paraphraserServiceDesc = grpc.ServiceDesc{
	ServiceName: paraphraseServiceName,
	HandlerType: (*ParaphraseServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Paraphrase", Handler: paraphraseHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mcttrener/paraphrase/v1/paraphrase.proto",
}

// #endregion server

// #region payload

func requestToStruct(req Request) (*structpb.Struct, error) {
	st := map[string]any{
		"uncontrollability":    req.State.Uncontrollability,
		"danger":               req.State.Danger,
		"positive_meta_belief": req.State.PositiveMetaBelief,
	}
	if req.State.LearnedEngagement != nil {
		st["learned_engagement"] = *req.State.LearnedEngagement
	}
	if req.State.CASDeltaEMA != nil {
		st["cas_delta_ema"] = *req.State.CASDeltaEMA
	}
	return structpb.NewStruct(map[string]any{
		"rule_reply":   req.RuleReply,
		"trace":        req.Trace,
		"phase":        string(req.Phase),
		"intervention": string(req.Intervention),
		"difficulty":   float64(req.Difficulty),
		"state":        st,
	})
}

func structToRequest(s *structpb.Struct) Request {
	f := s.GetFields()
	st := f["state"].GetStructValue().GetFields()
	req := Request{
		RuleReply:    f["rule_reply"].GetStringValue(),
		Trace:        f["trace"].GetStringValue(),
		Phase:        rules.Phase(f["phase"].GetStringValue()),
		Intervention: rules.Intervention(f["intervention"].GetStringValue()),
		Difficulty:   rules.Difficulty(f["difficulty"].GetNumberValue()),
		State: belief.BeliefState{
			Uncontrollability:  st["uncontrollability"].GetNumberValue(),
			Danger:             st["danger"].GetNumberValue(),
			PositiveMetaBelief: st["positive_meta_belief"].GetNumberValue(),
		},
	}
	if v, ok := st["learned_engagement"]; ok {
		req.State.LearnedEngagement = belief.Float(v.GetNumberValue())
	}
	if v, ok := st["cas_delta_ema"]; ok {
		req.State.CASDeltaEMA = belief.Float(v.GetNumberValue())
	}
	return req
}

func structToResponse(s *structpb.Struct) Response {
	f := s.GetFields()
	return Response{
		OK:    f["ok"].GetBoolValue(),
		Reply: f["reply"].GetStringValue(),
	}
}

// #endregion payload
