package devices

// Field is one labelled entry in a savestate dump: an object name, a field
// name within that object, and the raw bytes backing it at the moment of
// the call. This mirrors the source's macro-generated per-field manifest
// without requiring a macro step: components build their Field slice by
// hand over their own state.
type Field struct {
	Object string
	Name   string
	Bytes  []byte
}

// Snapshotter is implemented by every device that participates in
// savestate. Snapshot must only be called between execution-loop
// invocations — the machine is otherwise not quiesced and the dump would
// race the device's own goroutines (e.g. a drive's async completion).
type Snapshotter interface {
	Snapshot() []Field
}

// Restorer is implemented by devices that can be rehydrated from a
// previous Snapshot() call. Restore must reproduce bit-exact guest-visible
// behavior afterward: same pending IRQs, same PIO cursors, same counters.
type Restorer interface {
	Restore(fields []Field) error
}

// field is a small helper so Snapshot implementations read as a flat list
// of (object, name, bytes) triples instead of repeating Field{...} boilerplate.
func field(object, name string, bytes []byte) Field {
	return Field{Object: object, Name: name, Bytes: bytes}
}

func u8(b byte) []byte { return []byte{b} }

func boolByte(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

func u16(v uint16) []byte {
	return []byte{byte(v), byte(v >> 8)}
}

func u32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func u64(v uint64) []byte {
	out := make([]byte, 8)
	for i := range out {
		out[i] = byte(v >> (8 * i))
	}
	return out
}
