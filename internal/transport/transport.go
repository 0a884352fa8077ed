// SPDX-License-Identifier: MIT
// Package transport provides side channels for observing a running
// session: a WebSocket monitor feed and a periodic stats publisher.
// The primary visual output path (OSC over UDP) lives in internal/osc.
package transport

// Transport defines a generic interface for sending processed data or events.
// Implementations must be safe for concurrent use.
type Transport interface {
	Send(data any) error
	Close() error
}
