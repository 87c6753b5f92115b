package slackerserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"slacker/codec"
	"slacker/dispatch"
	"slacker/packet"
)

func startTestServer(t *testing.T, svr *Server) net.Addr {
	t.Helper()
	errCh := make(chan error, 1)
	go func() {
		errCh <- svr.Serve("tcp", "127.0.0.1:0")
	}()

	// Serve's net.Listen happens synchronously at the top of Serve, but
	// the goroutine scheduling it races this call; poll briefly for it.
	deadline := time.Now().Add(time.Second)
	for svr.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for server to start listening")
		}
		select {
		case err := <-errCh:
			t.Fatalf("Serve returned early: %v", err)
		default:
			time.Sleep(time.Millisecond)
		}
	}
	return svr.Addr()
}

func readOnePacket(t *testing.T, conn net.Conn) *packet.Packet {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var buf []byte
	chunk := make([]byte, 512)
	for {
		pkt, n, err := codec.Decode(buf)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if pkt != nil {
			_ = n
			return pkt
		}
		read, err := conn.Read(chunk)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		buf = append(buf, chunk[:read]...)
	}
}

func TestServerEchoRequest(t *testing.T) {
	registry := dispatch.NewRegistry()
	registry.Register("rust.test/echo", func(ctx context.Context, args []json.RawMessage) (any, error) {
		return args, nil
	})
	svr := NewServer(registry)
	addr := startTestServer(t, svr)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		svr.Shutdown(ctx)
	}()

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	req := packet.NewRequest(1, packet.JSONContentType, "rust.test/echo", []byte(`[1,2]`))
	if _, err := conn.Write(codec.Encode(req)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	resp := readOnePacket(t, conn)
	if resp.PacketType != packet.TypeResponse || resp.SerialID != 1 {
		t.Fatalf("unexpected response: %+v", resp.Header)
	}
	if resp.Response.ResultCode != packet.ResultCodeSuccess {
		t.Fatalf("expected SUCCESS, got %d", resp.Response.ResultCode)
	}
	if !bytes.Equal(resp.Response.Data, []byte(`[1,2]`)) {
		t.Fatalf("unexpected response data: %s", resp.Response.Data)
	}
}

func TestServerUnknownFunctionReturnsNotFound(t *testing.T) {
	svr := NewServer(dispatch.NewRegistry())
	addr := startTestServer(t, svr)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		svr.Shutdown(ctx)
	}()

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	req := packet.NewRequest(2, packet.JSONContentType, "rust.test/nope", []byte(`[]`))
	if _, err := conn.Write(codec.Encode(req)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	resp := readOnePacket(t, conn)
	if resp.PacketType != packet.TypeError || resp.Error.ResultCode != packet.ResultCodeNotFound {
		t.Fatalf("expected NOT_FOUND error, got %+v", resp)
	}
}

func TestServerPing(t *testing.T) {
	svr := NewWorkerPoolServer(dispatch.NewRegistry(), 2)
	addr := startTestServer(t, svr)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		svr.Shutdown(ctx)
	}()

	conn, err := net.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	ping := packet.NewPing(42)
	if _, err := conn.Write(codec.Encode(ping)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	resp := readOnePacket(t, conn)
	if resp.PacketType != packet.TypePong || resp.SerialID != 42 {
		t.Fatalf("expected pong echoing serial_id 42, got %+v", resp.Header)
	}
}
