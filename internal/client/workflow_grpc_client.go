package client

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pesio-ai/be-hr-recruitment/internal/workflow"
)

const workflowServicePath = "/hr.workflow.v1.WorkflowService/"

// forwardMetadata is a gRPC unary client interceptor that propagates
// incoming request metadata (including the acting user) to outgoing
// service-to-service calls.
func forwardMetadata(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		ctx = metadata.NewOutgoingContext(ctx, md)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// WithActor attaches the acting user to outgoing calls.
func WithActor(ctx context.Context, actor string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "x-user-id", actor)
}

// WorkflowGRPCClient is a gRPC client for the recruitment workflow service
type WorkflowGRPCClient struct {
	conn *grpc.ClientConn
}

// NewWorkflowGRPCClient creates a new workflow service gRPC client. Extra
// options are appended after the defaults.
func NewWorkflowGRPCClient(addr string, opts ...grpc.DialOption) (*WorkflowGRPCClient, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(forwardMetadata),
	}, opts...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}
	return &WorkflowGRPCClient{conn: conn}, nil
}

// Close closes the gRPC connection
func (c *WorkflowGRPCClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// GetEntity retrieves an entity by ID
func (c *WorkflowGRPCClient) GetEntity(ctx context.Context, id string) (*workflow.Entity, error) {
	var view struct {
		Entity *workflow.Entity `json:"entity"`
	}
	if err := c.call(ctx, "GetEntity", map[string]any{"id": id}, &view); err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return view.Entity, nil
}

// Act applies an approve / reject / return action
func (c *WorkflowGRPCClient) Act(ctx context.Context, id string, action workflow.Action, remarks string) (*workflow.Entity, error) {
	var e workflow.Entity
	err := c.call(ctx, "Act", map[string]any{
		"id":      id,
		"action":  string(action),
		"remarks": remarks,
	}, &e)
	if err != nil {
		return nil, fmt.Errorf("failed to %s entity: %w", action, err)
	}
	return &e, nil
}

// Resubmit restarts an entity returned for revision
func (c *WorkflowGRPCClient) Resubmit(ctx context.Context, id, remarks string) (*workflow.Entity, error) {
	var e workflow.Entity
	if err := c.call(ctx, "Resubmit", map[string]any{"id": id, "remarks": remarks}, &e); err != nil {
		return nil, fmt.Errorf("failed to resubmit entity: %w", err)
	}
	return &e, nil
}

func (c *WorkflowGRPCClient) call(ctx context.Context, method string, in map[string]any, out any) error {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, workflowServicePath+method, req, resp); err != nil {
		return err
	}
	data, err := json.Marshal(resp.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
