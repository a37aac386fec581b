package audit

import (
	"context"
	"os"
	"os/signal"
)

// SignalController turns Ctrl+C into context cancellation, so the page
// is still closed on the way out.
type SignalController struct {
	ch chan os.Signal
}

func NewSignalController() *SignalController {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return &SignalController{ch: ch}
}

// WithCancel returns a child of parent that is cancelled on the first
// interrupt.
func (s *SignalController) WithCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-s.ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func (s *SignalController) Close() {
	signal.Stop(s.ch)
}
