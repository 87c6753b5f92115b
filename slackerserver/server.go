// Package slackerserver implements the Slacker server runtime: accept
// loop, per-connection transport wiring, and graceful shutdown. Grounded
// on server/server.go's Serve/handleConn/Shutdown, with the etcd-backed
// registry.Registry service-discovery plumbing removed — service
// discovery is an explicit non-goal of this protocol — and the
// reflection-based service/method dispatch replaced by dispatch.Registry's
// plain function handlers.
package slackerserver

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"slacker/dispatch"
	"slacker/internal/logging"
	"slacker/packet"
	"slacker/slackererrors"
	"slacker/transport"

	"go.uber.org/zap"
)

// Server is the Slacker RPC server: a dispatcher bound to a TCP listener.
type Server struct {
	dispatcher dispatch.Dispatcher
	listener   net.Listener
	wg         sync.WaitGroup
	shutdown   atomic.Bool
}

// NewServer builds a Server with the async dispatcher (one goroutine per
// in-flight Request/InspectRequest), mirroring spec §6's abstract Server.
func NewServer(registry *dispatch.Registry, opts ...dispatch.Option) *Server {
	return &Server{dispatcher: dispatch.NewAsync(registry, opts...)}
}

// NewWorkerPoolServer builds a Server with the worker-pool dispatcher
// (bounded goroutines), mirroring spec §6's abstract ThreadPoolServer.
func NewWorkerPoolServer(registry *dispatch.Registry, workers int, opts ...dispatch.Option) *Server {
	return &Server{dispatcher: dispatch.NewWorkerPool(registry, workers, opts...)}
}

// Addr returns the listener's bound address. Only meaningful once Serve
// has started listening; primarily useful for tests that bind ":0".
func (svr *Server) Addr() net.Addr {
	if svr.listener == nil {
		return nil
	}
	return svr.listener.Addr()
}

// Serve binds network/address, and for each accepted connection spawns a
// transport.Conn paired with the server's dispatcher. It blocks until the
// listener closes (normally via Shutdown) or Accept fails.
func (svr *Server) Serve(network, address string) error {
	listener, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	svr.listener = listener

	logging.L().Info("slacker server listening", zap.String("network", network), zap.String("address", address))

	for {
		conn, err := listener.Accept()
		if err != nil {
			if svr.shutdown.Load() {
				return nil
			}
			return err
		}
		if tcpConn, ok := conn.(*net.TCPConn); ok {
			_ = tcpConn.SetNoDelay(true)
		}
		svr.wg.Add(1)
		go svr.handleConn(conn)
	}
}

// handleConn wires one accepted connection's transport to the server's
// dispatcher: every decoded packet is dispatched, every dispatcher
// response is sent back over the same connection, and any connection-
// fatal error closes it.
func (svr *Server) handleConn(netConn net.Conn) {
	defer svr.wg.Done()

	closed := make(chan struct{})
	var conn *transport.Conn
	onClose := func(err error) {
		if err != nil {
			logging.L().Debug("slacker connection closed", zap.Error(err))
		}
		close(closed)
	}
	// Each dispatched packet is tracked on svr.wg for the duration between
	// Dispatch and its terminal send or fail, the same grain server.go's
	// handleRequest tracks with its own wg.Add/Done.
	onPacket := func(pkt *packet.Packet) {
		svr.wg.Add(1)
		var once sync.Once
		finish := func() { once.Do(svr.wg.Done) }

		send := func(p *packet.Packet) error {
			err := conn.Send(p)
			if err == nil {
				finish()
			}
			return err
		}
		fail := func(err error) {
			logging.L().Debug("slacker dispatch failed, closing connection", zap.Error(err))
			conn.Close()
			finish()
		}
		svr.dispatcher.Dispatch(context.Background(), pkt, send, fail)
	}
	conn = transport.New(netConn, onPacket, onClose)
	conn.Start()
	<-closed
}

// Shutdown stops accepting new connections and waits for in-flight
// dispatch work to finish, or until ctx is done. Accepted connections are
// not closed by Shutdown: each one counts as in-flight work until its
// peer closes it or a connection-fatal error ends it. Grounded on
// server/server.go's Shutdown(timeout), adapted to context.Context since
// that is this repo's ambient idiom for deadlines (see middleware's
// TimeOutMiddleware).
func (svr *Server) Shutdown(ctx context.Context) error {
	svr.shutdown.Store(true)
	if svr.listener != nil {
		svr.listener.Close()
	}

	done := make(chan struct{})
	go func() {
		svr.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("%w: %v", slackererrors.ErrServerClosed, ctx.Err())
	}

	if closer, ok := svr.dispatcher.(interface{ Close() }); ok {
		closer.Close()
	}
	return err
}
