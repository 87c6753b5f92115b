package dispatch

import (
	"slacker/middleware"
	"slacker/serializer"
)

type options struct {
	middlewares []middleware.Middleware
	serializers *serializer.Registry
	inspect     InspectHandler
}

func newOptions(opts ...Option) *options {
	o := &options{serializers: serializer.NewRegistry()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures a dispatcher at construction time.
type Option func(*options)

// WithMiddleware appends middlewares to the chain wrapping every
// dispatched Request, applied in the order given (first is outermost).
func WithMiddleware(mw ...middleware.Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, mw...)
	}
}

// WithSerializers overrides the default (JSON-only) serializer registry.
func WithSerializers(reg *serializer.Registry) Option {
	return func(o *options) {
		o.serializers = reg
	}
}

// WithInspectHandler registers the handler that answers InspectRequest
// packets. Without one, InspectRequest is treated as unsupported.
func WithInspectHandler(h InspectHandler) Option {
	return func(o *options) {
		o.inspect = h
	}
}
