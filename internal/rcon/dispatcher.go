package rcon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultDelay is the recommended minimum gap between outbound RCON
// sends.
const DefaultDelay = 300 * time.Millisecond

// Dispatcher is the single-writer FIFO fronting Client. Queued commands
// reach the Client only through this worker; cvar reads made through
// Game.SetCurrentMap bypass the queue.
type Dispatcher struct {
	client *Client
	delay  time.Duration

	mu    sync.Mutex
	queue []string
	live  bool

	notify chan struct{}
}

// NewDispatcher wraps client with a FIFO worker using delay between
// sends. The live gate starts false; Run starts the worker loop.
func NewDispatcher(client *Client, delay time.Duration) *Dispatcher {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Dispatcher{
		client: client,
		delay:  delay,
		notify: make(chan struct{}, 1),
	}
}

// Enqueue appends cmd to the FIFO. Commands enqueued while the live
// gate is false are dropped silently.
func (d *Dispatcher) Enqueue(cmd string) {
	d.mu.Lock()
	live := d.live
	if live {
		d.queue = append(d.queue, cmd)
	}
	d.mu.Unlock()
	if live {
		select {
		case d.notify <- struct{}{}:
		default:
		}
	}
}

// Clear empties the queue atomically, used at map change and shutdown.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	d.queue = nil
	d.mu.Unlock()
}

// GoLive flips the live gate to true; called by the log tailer the
// first time it reaches end-of-file.
func (d *Dispatcher) GoLive() {
	d.mu.Lock()
	d.live = true
	d.mu.Unlock()
}

// Live reports the current gate state.
func (d *Dispatcher) Live() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

func (d *Dispatcher) pop() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return "", false
	}
	cmd := d.queue[0]
	d.queue = d.queue[1:]
	return cmd, true
}

// Run drives the dequeue-send-sleep worker loop until ctx is canceled,
// draining the queue to length zero before returning.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		cmd, ok := d.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return d.drain()
			case <-d.notify:
				continue
			case <-time.After(125 * time.Millisecond):
				continue
			}
		}
		if err := d.client.Send(cmd); err != nil {
			slog.Warn("rcon send failed", "cmd", cmd, "error", err)
		}
		select {
		case <-ctx.Done():
			return d.drain()
		case <-time.After(d.delay):
		}
	}
}

// drain sends every remaining queued command ignoring the inter-send
// delay, then returns — used only on shutdown.
func (d *Dispatcher) drain() error {
	for {
		cmd, ok := d.pop()
		if !ok {
			return nil
		}
		if err := d.client.Send(cmd); err != nil {
			slog.Warn("rcon send failed during drain", "cmd", cmd, "error", err)
		}
	}
}
