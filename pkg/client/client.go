// Package client talks to the keyval gRPC service.
//
// The service is declared without generated code: requests and responses
// are protobuf well-known types, so any gRPC client can call it.
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "keyval.v1.KeyVal"

// Full method names, as used on the wire.
const (
	GetMethod   = "/" + ServiceName + "/Get"
	SetMethod   = "/" + ServiceName + "/Set"
	StatsMethod = "/" + ServiceName + "/Stats"
)

// Client is a thin wrapper around a gRPC connection.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to addr without transport security. Extra options are
// appended after the defaults.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient("passthrough:///"+addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Get returns the value for key and whether it has ever been written.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, GetMethod, wrapperspb.String(key), out); err != nil {
		return "", false, err
	}
	fields := out.GetFields()
	return fields["value"].GetStringValue(), fields["found"].GetBoolValue(), nil
}

// Set stores value under key.
func (c *Client) Set(ctx context.Context, key, value string) error {
	in, err := structpb.NewStruct(map[string]any{"key": key, "value": value})
	if err != nil {
		return err
	}
	return c.conn.Invoke(ctx, SetMethod, in, new(emptypb.Empty))
}

// Stats returns the server stats as a plain map.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, StatsMethod, new(emptypb.Empty), out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
