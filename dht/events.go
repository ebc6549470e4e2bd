package dht

import (
	"errors"

	"github.com/attilabuti/eventemitter/v2"
	"go.uber.org/zap"
)

// Events emitted by a RoutingTable built WithEmitter. Listeners run
// synchronously inside the call that triggered them and must not call back
// into the table.
const (
	// EventAdded carries the new Contact.
	EventAdded = "routing.added"

	// EventUpdated carries the old and the new Contact of a refreshed peer.
	EventUpdated = "routing.updated"

	// EventRemoved carries the removed Contact.
	EventRemoved = "routing.removed"

	// EventFull carries the eviction candidate and the Contact that did not
	// fit.
	EventFull = "routing.full"
)

func (rt *RoutingTable) emit(event string, args ...any) {
	if rt.emitter == nil {
		return
	}
	err := rt.emitter.EmitSync(event, args...)
	if err != nil && !errors.Is(err, eventemitter.ErrEventNotExists) {
		rt.logger.Warn("event not delivered", zap.String("event", event), zap.Error(err))
	}
}
