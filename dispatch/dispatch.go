// Package dispatch turns decoded packets into responses. It has two
// variants sharing the same request-handling logic: Async (handler runs
// on its own goroutine, grounded on server/server.go's "go
// svr.handleRequest(...)" per-request parallelism) and WorkerPool
// (handler runs on a bounded workerpool.Pool, grounded on
// original_source's SlackerServiceSync / CpuPool).
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"slacker/internal/logging"
	"slacker/middleware"
	"slacker/packet"
	"slacker/slackererrors"

	"go.uber.org/zap"
)

// Dispatcher turns one decoded packet into zero or more outbound packets,
// delivered through send, or a connection-fatal error, delivered through
// fail. Both are safe to call from any goroutine; Dispatch itself must
// not block the caller's read loop for longer than routing the packet to
// its execution strategy takes.
type Dispatcher interface {
	Dispatch(ctx context.Context, pkt *packet.Packet, send func(*packet.Packet) error, fail func(error))
}

// base holds the request-handling logic shared by Async and WorkerPool;
// the two variants differ only in how they schedule handleRequest and
// handleInspectRequest.
type base struct {
	registry *Registry
	opts     *options
	chain    middleware.HandlerFunc
}

func newBase(registry *Registry, opts ...Option) *base {
	o := newOptions(opts...)
	business := func(ctx context.Context, call *middleware.Call) (res *middleware.Result) {
		handler, ok := registry.lookup(call.Fname)
		if !ok {
			return &middleware.Result{Err: slackererrors.ErrNotFound}
		}
		defer func() {
			if r := recover(); r != nil {
				res = &middleware.Result{Err: fmt.Errorf("%w: panic: %v", slackererrors.ErrHandlerFailed, r)}
			}
		}()
		v, err := handler(ctx, call.Args)
		if err != nil {
			return &middleware.Result{Err: fmt.Errorf("%w: %v", slackererrors.ErrHandlerFailed, err)}
		}
		return &middleware.Result{Value: v}
	}
	return &base{
		registry: registry,
		opts:     o,
		chain:    middleware.Chain(o.middlewares...)(business),
	}
}

// handleRequest implements spec §4.4's Request path. A lookup miss and a
// DecodeError (unregistered content_type, malformed arguments, or a result
// that can't be re-encoded) are both recoverable: they answer with an Error
// packet echoing the request header and leave the connection open for
// subsequent calls. Only a handler's own error is connection-fatal.
func (b *base) handleRequest(ctx context.Context, pkt *packet.Packet, send func(*packet.Packet) error, fail func(error)) {
	req := pkt.Request

	ser, ok := b.opts.serializers.Get(req.ContentType)
	if !ok {
		logging.L().Warn("rpc request has unregistered content_type, responding invalid_data",
			zap.String("fname", req.Fname), zap.Uint8("content_type", req.ContentType))
		if sendErr := send(packet.NewError(pkt.Header, packet.ResultCodeInvalidData)); sendErr != nil {
			fail(sendErr)
		}
		return
	}

	args, err := ser.DeserializeVec(req.Args)
	if err != nil {
		logging.L().Warn("rpc request args failed to deserialize, responding invalid_data",
			zap.String("fname", req.Fname), zap.Error(err))
		if sendErr := send(packet.NewError(pkt.Header, packet.ResultCodeInvalidData)); sendErr != nil {
			fail(sendErr)
		}
		return
	}

	result := b.chain(ctx, &middleware.Call{Fname: req.Fname, Args: args})
	if result.Err != nil {
		if errors.Is(result.Err, slackererrors.ErrNotFound) {
			if sendErr := send(packet.NewError(pkt.Header, packet.ResultCodeNotFound)); sendErr != nil {
				fail(sendErr)
			}
			return
		}
		logging.L().Warn("rpc handler failed, closing connection",
			zap.String("fname", req.Fname), zap.Error(result.Err))
		fail(result.Err)
		return
	}

	data, err := ser.Serialize(result.Value)
	if err != nil {
		logging.L().Warn("rpc response failed to serialize, responding invalid_data",
			zap.String("fname", req.Fname), zap.Error(err))
		if sendErr := send(packet.NewError(pkt.Header, packet.ResultCodeInvalidData)); sendErr != nil {
			fail(sendErr)
		}
		return
	}
	if sendErr := send(packet.NewResponse(pkt.Header, req.ContentType, data)); sendErr != nil {
		fail(sendErr)
	}
}

// handleInspectRequest implements the supplemented InspectRequest/
// InspectResponse dispatch (§8): a nil InspectHandler makes InspectRequest
// unsupported, fatal to the connection like any other unsupported packet.
func (b *base) handleInspectRequest(pkt *packet.Packet, send func(*packet.Packet) error, fail func(error)) {
	if b.opts.inspect == nil {
		fail(fmt.Errorf("%w: no inspect handler registered", slackererrors.ErrUnsupportedPacket))
		return
	}
	data, err := b.opts.inspect(pkt.InspectRequest.InspectType, pkt.InspectRequest.Data)
	if err != nil {
		fail(err)
		return
	}
	if sendErr := send(packet.NewInspectResponse(pkt.Header, data)); sendErr != nil {
		fail(sendErr)
	}
}

func (b *base) handlePing(pkt *packet.Packet, send func(*packet.Packet) error, fail func(error)) {
	if err := send(packet.NewPong(pkt.Header)); err != nil {
		fail(err)
	}
}

func unsupported(pkt *packet.Packet, fail func(error)) {
	fail(fmt.Errorf("%w: packet_type %d", slackererrors.ErrUnsupportedPacket, pkt.PacketType))
}
