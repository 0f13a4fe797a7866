package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey      = "delivery"
	serviceName       = "staywithme.delivery.v1.DeliveryPlugin"
	jsonCodecName     = "json"
	methodGetMetadata = "/" + serviceName + "/GetMetadata"
	methodSendText    = "/" + serviceName + "/SendText"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "STAYWITHME_PLUGIN",
	MagicCookieValue: "delivery",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

type SendTextRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type SendTextResponse struct {
	MessageID string `json:"message_id"`
	Accepted  bool   `json:"accepted"`
	Detail    string `json:"detail"`
}

type DeliveryPluginServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	SendText(ctx context.Context, in *SendTextRequest) (*SendTextResponse, error)
}

type DeliveryPluginClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	SendText(ctx context.Context, in *SendTextRequest) (*SendTextResponse, error)
}

type deliveryPluginClient struct {
	conn *grpc.ClientConn
}

func NewDeliveryPluginClient(conn *grpc.ClientConn) DeliveryPluginClient {
	return &deliveryPluginClient{conn: conn}
}

func (c *deliveryPluginClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *deliveryPluginClient) SendText(ctx context.Context, in *SendTextRequest) (*SendTextResponse, error) {
	out := &SendTextResponse{}
	if err := c.conn.Invoke(ctx, methodSendText, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

// unary adapts a typed server method to a grpc.MethodDesc handler.
func unary[Req any, Resp any](fullMethod string, call func(context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*Req)
			if !ok {
				return nil, fmt.Errorf("invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, in, info, handler)
	}
}

func RegisterDeliveryPluginServer(server grpc.ServiceRegistrar, impl DeliveryPluginServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*DeliveryPluginServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "GetMetadata", Handler: unary(methodGetMetadata, impl.GetMetadata)},
			{MethodName: "SendText", Handler: unary(methodSendText, impl.SendText)},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/delivery-rpc-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl DeliveryPluginServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterDeliveryPluginServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewDeliveryPluginClient(conn), nil
}

func PluginMap(impl DeliveryPluginServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
