// Package transport implements the multiplexed per-connection transport:
// a reader loop that feeds the codec and delivers decoded packets in
// wire-arrival order, and a writer loop that serializes outbound packets
// in submission order. Grounded on transport/client_transport.go's
// recvLoop + sending-mutex design, generalized from a client-only
// construct (single consumer: the pending-call table) to a transport
// shared by both the client and the server dispatcher, and from a mutex
// serializing concurrent writers to a single-consumer channel — the more
// idiomatic Go shape for "many producers, one writer".
package transport

import (
	"io"
	"net"
	"sync"

	"slacker/codec"
	"slacker/internal/logging"
	"slacker/packet"

	"go.uber.org/zap"
)

const readChunkSize = 4096

// Conn wraps a net.Conn with the Slacker framing loop. Construct one per
// accepted or dialed connection with New, then call Start to begin the
// reader/writer goroutines.
type Conn struct {
	netConn net.Conn
	outbound chan *packet.Packet

	onPacket func(*packet.Packet)
	onClose  func(error)

	closeOnce sync.Once
	closed    chan struct{}
}

// New constructs a Conn around netConn. onPacket is invoked from the
// reader goroutine for every decoded packet, in wire-arrival order;
// onClose is invoked exactly once, from the reader goroutine, with the
// error that ended the connection (nil when the peer closed it cleanly;
// a local Close surfaces as the reader's read error).
func New(netConn net.Conn, onPacket func(*packet.Packet), onClose func(error)) *Conn {
	return &Conn{
		netConn:  netConn,
		outbound: make(chan *packet.Packet, 64),
		onPacket: onPacket,
		onClose:  onClose,
		closed:   make(chan struct{}),
	}
}

// Start launches the reader and writer goroutines. Must be called once.
func (c *Conn) Start() {
	go c.writeLoop()
	go c.readLoop()
}

// Send enqueues pkt for serialized transmission. Outbound packets are
// written in submission order (spec §4.3's per-connection FIFO
// guarantee), realized here by a single channel with one consumer
// goroutine instead of the teacher's sending sync.Mutex.
func (c *Conn) Send(pkt *packet.Packet) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	select {
	case c.outbound <- pkt:
		return nil
	case <-c.closed:
		return io.ErrClosedPipe
	}
}

// Close tears down the connection. Safe to call multiple times and from
// any goroutine; only the first call has effect.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.netConn.Close()
	})
	return nil
}

func (c *Conn) readLoop() {
	var buf []byte
	chunk := make([]byte, readChunkSize)

	fail := func(err error) {
		c.Close()
		if c.onClose != nil {
			c.onClose(err)
		}
	}

	for {
		n, err := c.netConn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)

			for {
				pkt, consumed, decErr := codec.Decode(buf)
				if decErr != nil {
					fail(decErr)
					return
				}
				if pkt == nil {
					break // incomplete; wait for more bytes
				}
				buf = buf[consumed:]

				if pkt.PacketType == packet.TypeInterrupt {
					// Interrupt carries no implemented cancellation semantics;
					// received-and-logged is this repo's resolution of that
					// open question.
					logging.L().Debug("slacker: received interrupt, dropping",
						zap.Int32("serial_id", pkt.SerialID),
						zap.Int32("target_serial_id", pkt.Interrupt.TargetSerialID))
					continue
				}
				c.onPacket(pkt)
			}
		}
		if err != nil {
			if err == io.EOF {
				fail(nil)
			} else {
				fail(err)
			}
			return
		}
	}
}

func (c *Conn) writeLoop() {
	for {
		select {
		case pkt := <-c.outbound:
			if _, err := c.netConn.Write(codec.Encode(pkt)); err != nil {
				logging.L().Debug("slacker: write failed, closing connection", zap.Error(err))
				c.Close()
				return
			}
		case <-c.closed:
			return
		}
	}
}
