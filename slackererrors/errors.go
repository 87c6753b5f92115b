// Package slackererrors collects the sentinel errors shared across the
// Slacker codec, transport, dispatch, server, and client packages.
package slackererrors

import "errors"

var (
	// ErrUnknownPacketType is returned by codec.Decode when the wire
	// packet_type byte does not match any known variant. Fatal to the
	// connection (a WireError per spec §7).
	ErrUnknownPacketType = errors.New("slacker: unknown packet type")

	// ErrInvalidData marks a payload that parsed at the wire level but
	// failed to deserialize as the declared content type.
	ErrInvalidData = errors.New("slacker: invalid payload data")

	// ErrNotFound marks a Request whose fname has no registered handler.
	ErrNotFound = errors.New("slacker: function not found")

	// ErrConnectionClosed is delivered to every pending client call when
	// the underlying connection is torn down before a response arrives.
	ErrConnectionClosed = errors.New("slacker: connection closed")

	// ErrUnsupportedPacket marks receipt of a packet type that is
	// invalid for the receiving role (e.g. a server receiving a
	// Response, or a client receiving a Request). Fatal to the
	// connection.
	ErrUnsupportedPacket = errors.New("slacker: unsupported packet for this role")

	// ErrHandlerFailed wraps a registered handler's own error so it can
	// be distinguished from protocol-level errors in logs.
	ErrHandlerFailed = errors.New("slacker: handler returned an error")

	// ErrHandlerTimeout is returned by middleware.TimeOutMiddleware when a
	// handler does not complete before its deadline.
	ErrHandlerTimeout = errors.New("slacker: request timed out")

	// ErrRateLimited is returned by middleware.RateLimitMiddleware when a
	// call is rejected because the token bucket is empty.
	ErrRateLimited = errors.New("slacker: rate limit exceeded")

	// ErrServerClosed is returned (wrapped) by slackerserver.Server.Shutdown
	// when its context ends before in-flight work has finished.
	ErrServerClosed = errors.New("slacker: server closed")
)
