package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pesio-ai/be-hr-recruitment/internal/platform/errors"
	"github.com/pesio-ai/be-hr-recruitment/internal/service"
	"github.com/pesio-ai/be-hr-recruitment/internal/workflow"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "hr.workflow.v1.WorkflowService"

// userMetadataKey carries the acting user's identity on gRPC calls.
const userMetadataKey = "x-user-id"

// WorkflowServer is the gRPC surface of the workflow service. Messages are
// google.protobuf.Struct values holding the same JSON shapes as the HTTP API.
type WorkflowServer interface {
	GetEntity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Act(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Resubmit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPending(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// WorkflowServiceDesc describes WorkflowServer for grpc.Server.RegisterService.
var WorkflowServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WorkflowServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetEntity", Handler: unaryHandler("GetEntity", WorkflowServer.GetEntity)},
		{MethodName: "Act", Handler: unaryHandler("Act", WorkflowServer.Act)},
		{MethodName: "Resubmit", Handler: unaryHandler("Resubmit", WorkflowServer.Resubmit)},
		{MethodName: "ListPending", Handler: unaryHandler("ListPending", WorkflowServer.ListPending)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hr/workflow/v1/workflow.proto",
}

// RegisterWorkflowServer registers srv on s.
func RegisterWorkflowServer(s grpc.ServiceRegistrar, srv WorkflowServer) {
	s.RegisterService(&WorkflowServiceDesc, srv)
}

func unaryHandler(method string, call func(WorkflowServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(WorkflowServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(WorkflowServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// GRPCHandler implements WorkflowServer
type GRPCHandler struct {
	service *service.WorkflowService
	logger  zerolog.Logger
}

// NewGRPCHandler creates a new gRPC handler
func NewGRPCHandler(svc *service.WorkflowService, logger zerolog.Logger) *GRPCHandler {
	return &GRPCHandler{
		service: svc,
		logger:  logger.With().Str("handler", "grpc").Logger(),
	}
}

// userID extracts the acting user from incoming metadata, or returns empty string.
func userID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(userMetadataKey); len(v) > 0 {
		return v[0]
	}
	return ""
}

// GetEntity returns an entity view: entity, timeline and history.
func (h *GRPCHandler) GetEntity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	view, err := h.service.View(ctx, id)
	if err != nil {
		return nil, mapErrorToGRPC(err)
	}
	return toStruct(view)
}

// Act applies an approve / reject / return action.
func (h *GRPCHandler) Act(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in service.ActionRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}
	if u := userID(ctx); u != "" {
		in.Actor = u
	}

	h.logger.Info().
		Str("entity_id", in.ID).
		Str("action", in.Action).
		Str("actor", in.Actor).
		Msg("gRPC Act called")

	entity, err := h.service.Act(ctx, &in)
	if err != nil {
		return nil, mapErrorToGRPC(err)
	}
	return toStruct(entity)
}

// Resubmit restarts an entity returned for revision.
func (h *GRPCHandler) Resubmit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in service.ResubmitRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}
	if u := userID(ctx); u != "" {
		in.Actor = u
	}

	entity, err := h.service.Resubmit(ctx, &in)
	if err != nil {
		return nil, mapErrorToGRPC(err)
	}
	return toStruct(entity)
}

// ListPending lists the entities waiting on a role.
func (h *GRPCHandler) ListPending(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	entities, err := h.service.PendingFor(ctx, req.GetFields()["role"].GetStringValue())
	if err != nil {
		return nil, mapErrorToGRPC(err)
	}
	if entities == nil {
		entities = []*workflow.Entity{}
	}
	return toStruct(map[string]any{
		"entities": entities,
		"total":    len(entities),
	})
}

// UnaryLoggingInterceptor logs every unary call with its duration and code.
func UnaryLoggingInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info().
			Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("duration", time.Since(start)).
			Msg("gRPC request")
		return resp, err
	}
}

// ── Conversion helpers ────────────────────────────────────────────────────────

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, v any) error {
	data, err := json.Marshal(in.AsMap())
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

func mapErrorToGRPC(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()

	switch errors.CodeOf(err) {
	case errors.ErrCodeNotFound:
		return status.Error(codes.NotFound, msg)
	case errors.ErrCodeInvalidInput, errors.ErrCodeUnsupportedAction, errors.ErrCodeMissingRemarks:
		return status.Error(codes.InvalidArgument, msg)
	case errors.ErrCodeConflict:
		return status.Error(codes.AlreadyExists, msg)
	case errors.ErrCodeVersionConflict:
		return status.Error(codes.Aborted, msg)
	case errors.ErrCodeAlreadyResolved, workflow.ErrCodeNotRevisable,
		workflow.ErrCodeAlreadySubmitted, workflow.ErrCodePendingStepExists:
		return status.Error(codes.FailedPrecondition, msg)
	case errors.ErrCodeUnauthorized:
		return status.Error(codes.Unauthenticated, msg)
	default:
		return status.Error(codes.Internal, msg)
	}
}
