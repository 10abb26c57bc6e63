// Package events provides an event emitter whose registrations can be cancelled with io.Closer.
package events

import (
	"io"

	"github.com/tul/emission"
)

// Emitter is an event emitter.
// Emit invokes every listener and returns after all of them have returned.
type Emitter struct {
	*emission.Emitter
}

// NewEmitter creates an Emitter with no limit on listeners per event.
func NewEmitter() *Emitter {
	e := emission.NewEmitter()
	e.SetMaxListeners(-1)
	return &Emitter{Emitter: e}
}

// On registers a callback when an event occurs.
// Closing the returned io.Closer removes the callback.
func (emitter *Emitter) On(event, listener any) io.Closer {
	return listenerCloser{emitter.Emitter, event, emitter.Emitter.On(event, listener)}
}

// Once registers a one-time callback when an event occurs.
// Closing the returned io.Closer removes the callback if it has not fired.
func (emitter *Emitter) Once(event, listener any) io.Closer {
	return listenerCloser{emitter.Emitter, event, emitter.Emitter.Once(event, listener)}
}

type listenerCloser struct {
	emitter *emission.Emitter
	event   any
	handle  emission.ListenerHandle
}

func (c listenerCloser) Close() error {
	c.emitter.RemoveListener(c.event, c.handle)
	return nil
}
