// Package slackerclient implements the Slacker client: one multiplexed
// connection per Client, correlating concurrent calls by serial_id.
// Grounded on client/client.go and transport/client_transport.go,
// generalized from etcd-discovered multi-instance calls (service
// discovery is a non-goal of this protocol) to a single dialed
// connection per Client, matching spec §6's abstract
// ClientManager.connect(addr) -> future<Client>.
package slackerclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"slacker/internal/logging"
	"slacker/packet"
	"slacker/serializer"
	"slacker/slackererrors"
	"slacker/transport"

	"go.uber.org/zap"
)

// outcome is what a pending call's completion channel carries: either a
// decoded Response payload or an error (NotFound, connection loss).
type outcome struct {
	data json.RawMessage
	err  error
}

// Client wraps one multiplexed TCP connection to a Slacker server.
type Client struct {
	conn       *transport.Conn
	serializer serializer.Serializer
	serial     int32 // next serial_id to hand out minus one; first call gets 0
	pending    sync.Map // map[int32]chan *outcome, mirroring transport/client_transport.go's pending sync.Map
}

// ClientManager connects to Slacker servers. It holds no state beyond
// its dial options; every Connect call returns an independent Client.
type ClientManager struct {
	serializer serializer.Serializer
}

// NewClientManager builds a ClientManager. The default serializer is JSON.
func NewClientManager(opts ...ManagerOption) *ClientManager {
	m := &ClientManager{serializer: serializer.JSON}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ManagerOption configures a ClientManager.
type ManagerOption func(*ClientManager)

// WithSerializer overrides the default JSON serializer used to encode
// call arguments and decode results.
func WithSerializer(s serializer.Serializer) ManagerOption {
	return func(m *ClientManager) { m.serializer = s }
}

// Connect dials addr and returns a Client ready to make calls.
func (m *ClientManager) Connect(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	netConn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if tcpConn, ok := netConn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}

	c := &Client{serializer: m.serializer}
	c.conn = transport.New(netConn, c.onPacket, c.onClose)
	c.conn.Start()
	return c, nil
}

func (c *Client) onPacket(pkt *packet.Packet) {
	switch pkt.PacketType {
	case packet.TypeResponse, packet.TypeError, packet.TypePong:
	default:
		// Any other packet type is a protocol error on the client side:
		// close the connection, which fails every pending call.
		logging.L().Debug("slacker client: unsupported packet, closing connection",
			zap.Int32("serial_id", pkt.SerialID), zap.Uint8("packet_type", uint8(pkt.PacketType)))
		c.conn.Close()
		return
	}
	ch, ok := c.pending.LoadAndDelete(pkt.SerialID)
	if !ok {
		logging.L().Debug("slacker client: response for unknown or cancelled call",
			zap.Int32("serial_id", pkt.SerialID))
		return
	}
	out := ch.(chan *outcome)
	switch pkt.PacketType {
	case packet.TypeResponse:
		out <- &outcome{data: json.RawMessage(pkt.Response.Data)}
	case packet.TypeError:
		out <- &outcome{err: errorForResultCode(pkt.Error.ResultCode)}
	case packet.TypePong:
		out <- &outcome{}
	default:
		out <- &outcome{err: fmt.Errorf("%w: packet_type %d", slackererrors.ErrUnsupportedPacket, pkt.PacketType)}
	}
}

func (c *Client) onClose(err error) {
	cause := slackererrors.ErrConnectionClosed
	if err != nil {
		cause = fmt.Errorf("%w: %v", slackererrors.ErrConnectionClosed, err)
	}
	c.pending.Range(func(key, value any) bool {
		c.pending.Delete(key)
		value.(chan *outcome) <- &outcome{err: cause}
		return true
	})
}

func errorForResultCode(code byte) error {
	if code == packet.ResultCodeNotFound {
		return slackererrors.ErrNotFound
	}
	return fmt.Errorf("slacker: call failed with result_code %d", code)
}

// Call invokes namespace/function with args, blocking until the matching
// Response or Error arrives, the connection is lost, or ctx is done. args
// is serialized as a JSON array; the raw Response payload is returned for
// the caller to deserialize into its own result type.
func (c *Client) Call(ctx context.Context, namespace, function string, args ...any) (json.RawMessage, error) {
	fname := namespace + "/" + function
	if args == nil {
		args = []any{}
	}
	payload, err := c.serializer.Serialize(args)
	if err != nil {
		return nil, err
	}

	serialID := atomic.AddInt32(&c.serial, 1) - 1
	ch := make(chan *outcome, 1)
	c.pending.Store(serialID, ch)

	req := packet.NewRequest(serialID, packet.JSONContentType, fname, payload)
	if err := c.conn.Send(req); err != nil {
		c.pending.Delete(serialID)
		return nil, fmt.Errorf("%w: %v", slackererrors.ErrConnectionClosed, err)
	}

	select {
	case out := <-ch:
		return out.data, out.err
	case <-ctx.Done():
		c.pending.Delete(serialID)
		return nil, ctx.Err()
	}
}

// Ping sends a Ping and waits for the matching Pong.
func (c *Client) Ping(ctx context.Context) error {
	serialID := atomic.AddInt32(&c.serial, 1) - 1
	ch := make(chan *outcome, 1)
	c.pending.Store(serialID, ch)

	if err := c.conn.Send(packet.NewPing(serialID)); err != nil {
		c.pending.Delete(serialID)
		return err
	}

	select {
	case out := <-ch:
		return out.err
	case <-ctx.Done():
		c.pending.Delete(serialID)
		return ctx.Err()
	}
}

// Close tears down the underlying connection, failing any pending calls
// with ErrConnectionClosed.
func (c *Client) Close() error {
	return c.conn.Close()
}
