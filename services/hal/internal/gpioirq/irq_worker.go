// services/hal/internal/gpioirq/irq_worker.go
package gpioirq

import (
	"context"
	"sync"
	"sync/atomic"

	"powermeter-go/services/hal/internal/halcore"
)

// Worker decouples pin ISR callbacks from driver edge handlers. The ISR side
// captures a clock timestamp and does a non-blocking channel send only; the
// worker goroutine invokes the registered handler with that capture
// timestamp, so queue backlog never distorts inter-edge timing. On platforms
// whose edge callbacks already run on an ordinary goroutine (Linux gpiocdev)
// the worker additionally serialises handlers for all registered pins.

// Event is delivered to a registered edge handler. TS is the clock reading
// (µs) taken in the ISR, not at dispatch.
type Event struct {
	DevID string
	TS    uint32
}

type Worker struct {
	clk halcore.Clock

	// Written by ISR; MUST NOT block the ISR:
	isrQ    chan Event
	stopped chan struct{}

	mu     sync.RWMutex
	inputs map[string]*watch // devID -> watch

	drops uint32 // ISR drop counter
}

type watch struct {
	devID     string
	pin       halcore.IRQPin
	handler   func(Event)
	cancelIRQ func()
}

func New(clk halcore.Clock, isrBuf int) *Worker {
	if isrBuf <= 0 {
		isrBuf = 64
	}
	return &Worker{
		clk:     clk,
		isrQ:    make(chan Event, isrBuf),
		stopped: make(chan struct{}),
		inputs:  map[string]*watch{},
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer close(w.stopped)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-w.isrQ:
				w.dispatch(ev)
			}
		}
	}()
}

// Register attaches handler to the given edge on pin. The handler runs on
// the worker goroutine, never in the ISR. The returned cancel detaches the
// IRQ and forgets the registration.
func (w *Worker) Register(devID string, pin halcore.IRQPin, edge halcore.Edge, handler func(Event)) (func(), error) {
	if edge == halcore.EdgeNone {
		return func() {}, nil
	}

	wh := &watch{devID: devID, pin: pin, handler: handler}

	// ISR handler: timestamp capture + non-blocking channel send.
	isr := func() {
		select {
		case w.isrQ <- Event{DevID: devID, TS: w.clk.Micros()}:
		default:
			atomic.AddUint32(&w.drops, 1) // protect ISR path
		}
	}
	if err := pin.SetIRQ(edge, isr); err != nil {
		return nil, err
	}
	wh.cancelIRQ = func() { _ = pin.ClearIRQ() }

	w.mu.Lock()
	w.inputs[devID] = wh
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		if cur, ok := w.inputs[devID]; ok {
			if cur.cancelIRQ != nil {
				cur.cancelIRQ()
			}
			delete(w.inputs, devID)
		}
		w.mu.Unlock()
	}, nil
}

func (w *Worker) dispatch(ev Event) {
	w.mu.RLock()
	wh := w.inputs[ev.DevID]
	w.mu.RUnlock()
	if wh == nil || wh.handler == nil {
		return
	}
	wh.handler(ev)
}

func (w *Worker) ISRDrops() uint32 { return atomic.LoadUint32(&w.drops) }
