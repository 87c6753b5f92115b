package dispatch

import (
	"context"

	"slacker/packet"
	"slacker/workerpool"
)

// WorkerPool runs each dispatched Request/InspectRequest on a fixed-size
// workerpool.Pool instead of a fresh goroutine. Grounded on
// original_source's SlackerServiceSync (backed by futures_cpupool::CpuPool):
// a bounded number of OS threads serve potentially CPU-bound handlers,
// trading unbounded goroutine fan-out for a fixed worker budget.
type WorkerPool struct {
	*base
	pool *workerpool.Pool
}

// NewWorkerPool builds a WorkerPool dispatcher over registry with the
// given number of worker goroutines.
func NewWorkerPool(registry *Registry, workers int, opts ...Option) *WorkerPool {
	return &WorkerPool{
		base: newBase(registry, opts...),
		pool: workerpool.New(workers),
	}
}

func (d *WorkerPool) Dispatch(ctx context.Context, pkt *packet.Packet, send func(*packet.Packet) error, fail func(error)) {
	switch pkt.PacketType {
	case packet.TypePing:
		d.handlePing(pkt, send, fail)
	case packet.TypeRequest:
		d.pool.Submit(func() { d.handleRequest(ctx, pkt, send, fail) })
	case packet.TypeInspectRequest:
		d.pool.Submit(func() { d.handleInspectRequest(pkt, send, fail) })
	default:
		unsupported(pkt, fail)
	}
}

// Close stops the underlying worker pool, waiting for queued and
// in-flight handlers to finish.
func (d *WorkerPool) Close() {
	d.pool.Close()
}
