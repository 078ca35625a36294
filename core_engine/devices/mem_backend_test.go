package devices_test

import "github.com/nepx/halfix-go/core_engine/devices"

// memBackend is a trivial in-memory devices.DriveBackend for tests that
// don't want to touch a real file.
type memBackend struct {
	data []byte
}

func newMemBackend(size int) *memBackend {
	return &memBackend{data: make([]byte, size)}
}

func (b *memBackend) ReadAt(buf []byte, offsetBytes int64) (bool, error, devices.AsyncResult) {
	copy(buf, b.data[offsetBytes:int(offsetBytes)+len(buf)])
	return true, nil, devices.AsyncResult{}
}

func (b *memBackend) WriteAt(buf []byte, offsetBytes int64) (bool, error, devices.AsyncResult) {
	copy(b.data[offsetBytes:int(offsetBytes)+len(buf)], buf)
	return true, nil, devices.AsyncResult{}
}

func (b *memBackend) PrefetchAt(offsetBytes int64, size int) (bool, error, devices.AsyncResult) {
	return true, nil, devices.AsyncResult{}
}

func (b *memBackend) Cancel() {}
