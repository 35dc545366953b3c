// Package notify implements the engine's fire-and-forget event publishing
// over an in-process buffered channel.
package notify

import (
	"log/slog"
	"sync"

	"bazaar-ads/internal/core/domain"
)

// Handler consumes a single ad event. Handlers run on the dispatch
// goroutine; panics are recovered and logged so a broken consumer cannot
// take the dispatcher down.
type Handler func(domain.AdEvent)

// ChannelNotifier implements port.Notifier over a buffered channel. Publish
// never blocks: when the buffer is full the event is dropped and logged,
// because a placement or spend that already happened must not wait on
// analytics.
type ChannelNotifier struct {
	events   chan domain.AdEvent
	handlers []Handler
	logger   *slog.Logger

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewChannelNotifier creates a notifier with the given buffer capacity and
// consumers. Call Start before publishing and Close on shutdown.
func NewChannelNotifier(buffer int, logger *slog.Logger, handlers ...Handler) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelNotifier{
		events:   make(chan domain.AdEvent, buffer),
		handlers: handlers,
		logger:   logger,
		quit:     make(chan struct{}),
	}
}

// Start launches the dispatch goroutine.
func (n *ChannelNotifier) Start() {
	n.wg.Add(1)
	go n.dispatch()
}

// Publish enqueues the event without blocking. Events are dropped when the
// buffer is full.
func (n *ChannelNotifier) Publish(event domain.AdEvent) {
	select {
	case n.events <- event:
	default:
		n.logger.Warn("event buffer full, dropping event",
			slog.String("type", string(event.Type)),
			slog.String("campaign_id", event.CampaignID))
	}
}

// Close stops the dispatcher after draining events already buffered.
func (n *ChannelNotifier) Close() {
	close(n.quit)
	n.wg.Wait()
}

func (n *ChannelNotifier) dispatch() {
	defer n.wg.Done()
	for {
		select {
		case e := <-n.events:
			n.deliver(e)
		case <-n.quit:
			for {
				select {
				case e := <-n.events:
					n.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (n *ChannelNotifier) deliver(e domain.AdEvent) {
	for _, h := range n.handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					n.logger.Error("event handler panicked",
						slog.String("type", string(e.Type)),
						slog.Any("panic", r))
				}
			}()
			h(e)
		}()
	}
}
