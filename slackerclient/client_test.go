package slackerclient

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"slacker/codec"
	"slacker/packet"
	"slacker/serializer"
	"slacker/slackererrors"
	"slacker/transport"
)

// fakeServer reads packets off one side of a net.Pipe and answers
// according to respond, so Client can be tested without slackerserver.
func fakeServer(t *testing.T, conn net.Conn, respond func(req *packet.Packet) *packet.Packet) {
	t.Helper()
	go func() {
		var buf []byte
		chunk := make([]byte, 256)
		for {
			for {
				pkt, n, err := codec.Decode(buf)
				if err != nil {
					return
				}
				if pkt == nil {
					break
				}
				buf = buf[n:]
				if resp := respond(pkt); resp != nil {
					if _, err := conn.Write(codec.Encode(resp)); err != nil {
						return
					}
				}
			}
			read, err := conn.Read(chunk)
			if err != nil {
				return
			}
			buf = append(buf, chunk[:read]...)
		}
	}()
}

func newTestClient(t *testing.T, respond func(req *packet.Packet) *packet.Packet) (*Client, net.Conn) {
	t.Helper()
	clientSide, serverSide := net.Pipe()
	fakeServer(t, serverSide, respond)

	c := &Client{serializer: serializer.JSON}
	c.conn = transport.New(clientSide, c.onPacket, c.onClose)
	c.conn.Start()
	return c, serverSide
}

func TestClientCallSuccess(t *testing.T) {
	c, serverSide := newTestClient(t, func(req *packet.Packet) *packet.Packet {
		return packet.NewResponse(req.Header, packet.JSONContentType, req.Request.Args)
	})
	defer serverSide.Close()
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := c.Call(ctx, "rust.test", "echo", 1, 2)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if string(data) != `[1,2]` {
		t.Fatalf("unexpected response data: %s", data)
	}
}

func TestClientSerialIDsStartAtZero(t *testing.T) {
	var seen []int32
	c, serverSide := newTestClient(t, func(req *packet.Packet) *packet.Packet {
		seen = append(seen, req.SerialID)
		return packet.NewResponse(req.Header, packet.JSONContentType, req.Request.Args)
	})
	defer serverSide.Close()
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := c.Call(ctx, "rust.test", "echo"); err != nil {
		t.Fatalf("first Call failed: %v", err)
	}
	if _, err := c.Call(ctx, "rust.test", "echo"); err != nil {
		t.Fatalf("second Call failed: %v", err)
	}
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 1 {
		t.Fatalf("expected serial_ids [0 1], got %v", seen)
	}
}

func TestClientCallNotFound(t *testing.T) {
	c, serverSide := newTestClient(t, func(req *packet.Packet) *packet.Packet {
		return packet.NewError(req.Header, packet.ResultCodeNotFound)
	})
	defer serverSide.Close()
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.Call(ctx, "rust.test", "nope")
	if !errors.Is(err, slackererrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientPing(t *testing.T) {
	c, serverSide := newTestClient(t, func(req *packet.Packet) *packet.Packet {
		if req.PacketType == packet.TypePing {
			return packet.NewPong(req.Header)
		}
		return nil
	})
	defer serverSide.Close()
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestClientCallFailsOnConnectionClose(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	c := &Client{serializer: serializer.JSON}
	c.conn = transport.New(clientSide, c.onPacket, c.onClose)
	c.conn.Start()

	serverSide.Close() // break the connection without answering

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.Call(ctx, "rust.test", "echo")
	if !errors.Is(err, slackererrors.ErrConnectionClosed) {
		t.Fatalf("expected ErrConnectionClosed, got %v", err)
	}
}

func TestClientCallCancelledByContext(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer serverSide.Close()

	c := &Client{serializer: serializer.JSON}
	c.conn = transport.New(clientSide, c.onPacket, c.onClose)
	c.conn.Start()
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Call(ctx, "rust.test", "neverresponds")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline exceeded, got %v", err)
	}
}
