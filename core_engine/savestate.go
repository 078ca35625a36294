package core_engine

import "github.com/nepx/halfix-go/core_engine/devices"

// Field, Snapshotter, and Restorer are defined in the devices package (every
// implementer lives there) and aliased here so callers of SavestateWriter
// don't need to import devices just to name them.
type Field = devices.Field
type Snapshotter = devices.Snapshotter
type Restorer = devices.Restorer

// SavestateWriter collects Field triples from every registered component.
// It is not a serialization format — encoding those triples to disk, a
// socket, or a test fixture is left to the caller.
type SavestateWriter struct {
	components []Snapshotter
}

// NewSavestateWriter returns an empty writer.
func NewSavestateWriter() *SavestateWriter {
	return &SavestateWriter{}
}

// Register adds a component to the dump order.
func (w *SavestateWriter) Register(c Snapshotter) {
	w.components = append(w.components, c)
}

// Dump walks every registered component and concatenates its Fields.
func (w *SavestateWriter) Dump() []Field {
	var out []Field
	for _, c := range w.components {
		out = append(out, c.Snapshot()...)
	}
	return out
}
