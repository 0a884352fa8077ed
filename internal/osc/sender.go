// SPDX-License-Identifier: MIT
package osc

import (
	"fmt"
	"net"
	"sync"

	applog "synesthesia/internal/log"
)

// Sender owns the UDP socket to the renderer. It holds no state beyond the
// transport handle and is safe for concurrent use.
type Sender struct {
	conn       *net.UDPConn
	targetAddr *net.UDPAddr
	mu         sync.Mutex // Protects conn during Close
	closed     bool
}

// NewSender creates a Sender targeting "host:port", e.g. "127.0.0.1:12000".
func NewSender(targetAddress string) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address %q: %w", targetAddress, err)
	}

	// No local bind needed for sending; nil local address lets the OS pick.
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target %q: %w", targetAddress, err)
	}

	applog.Infof("OSC: sender connected to %s", conn.RemoteAddr().String())

	return &Sender{
		conn:       conn,
		targetAddr: udpAddr,
	}, nil
}

// Send transmits one datagram. A send failure is returned to the caller to
// log and drop; the next command supersedes it, nothing is retried.
func (s *Sender) Send(data []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("osc sender is closed")
	}
	_, err := s.conn.Write(data)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to send OSC packet: %w", err)
	}
	return nil
}

// Close closes the underlying UDP connection. Idempotent.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.conn != nil {
		applog.Debugf("OSC: closing connection to %s", s.conn.RemoteAddr().String())
		err := s.conn.Close()
		s.conn = nil
		if err != nil {
			return fmt.Errorf("failed to close OSC connection: %w", err)
		}
	}
	return nil
}

var _ interface{ Close() error } = (*Sender)(nil)
