// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
	"time"

	applog "synesthesia/internal/log"
)

// StatsPublisher periodically samples a stats source and pushes the
// snapshot through a Transport. It runs in its own goroutine managed by
// Start and Stop.
type StatsPublisher struct {
	transport Transport
	source    func() any
	interval  time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// NewStatsPublisher creates a publisher that calls source on each tick
// and sends the result over transport. An interval <= 0 defaults to 1s.
func NewStatsPublisher(interval time.Duration, transport Transport, source func() any) (*StatsPublisher, error) {
	if transport == nil {
		return nil, fmt.Errorf("StatsPublisher: transport cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("StatsPublisher: stats source cannot be nil")
	}
	if interval <= 0 {
		interval = time.Second
		applog.Warnf("StatsPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	return &StatsPublisher{
		transport: transport,
		source:    source,
		interval:  interval,
	}, nil
}

// Start begins periodic publishing. Safe to call more than once; calls
// while already running are no-ops.
func (p *StatsPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("StatsPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("StatsPublisher: Goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				if err := p.transport.Send(p.source()); err != nil {
					applog.Errorf("StatsPublisher: Error sending stats: %v", err)
				}
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to exit and waits for it. Safe to
// call more than once.
func (p *StatsPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		applog.Debugf("StatsPublisher: Stop called but not running.")
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// Close implements io.Closer by stopping the publisher.
func (p *StatsPublisher) Close() error {
	return p.Stop()
}
