package dispatch

import (
	"context"

	"slacker/packet"
)

// Async runs each dispatched Request/InspectRequest on its own goroutine,
// so a slow handler never blocks the connection's read loop from decoding
// further packets. Grounded on server/server.go's handleConn, which spawns
// "go svr.handleRequest(...)" per request for the same reason.
type Async struct {
	*base
}

// NewAsync builds an Async dispatcher over registry.
func NewAsync(registry *Registry, opts ...Option) *Async {
	return &Async{base: newBase(registry, opts...)}
}

func (d *Async) Dispatch(ctx context.Context, pkt *packet.Packet, send func(*packet.Packet) error, fail func(error)) {
	switch pkt.PacketType {
	case packet.TypePing:
		d.handlePing(pkt, send, fail)
	case packet.TypeRequest:
		go d.handleRequest(ctx, pkt, send, fail)
	case packet.TypeInspectRequest:
		go d.handleInspectRequest(pkt, send, fail)
	default:
		unsupported(pkt, fail)
	}
}
