package devices

import "sync"

// DriveType enumerates what a DriveHandle represents.
type DriveType int

const (
	DriveNone DriveType = iota
	DriveDisk
	DriveCDROM
)

// CHSGeometry is a drive's cylinder/head/sector-per-track shape.
type CHSGeometry struct {
	Cylinders       uint32
	Heads           uint32
	SectorsPerTrack uint32
}

// Completion is the immediate outcome of a Block Layer call: it completed
// before returning (Sync), or it will complete later via a callback
// delivered from CheckComplete (Async).
type Completion int

const (
	CompletionSync Completion = iota
	CompletionAsync
)

// CompletionCallback is invoked exactly once for an async operation, from
// CheckComplete's stack.
type CompletionCallback func(userPtr interface{}, err error)

// AsyncResult is handed back by a backend when it can't complete an
// operation synchronously; Done receives exactly one value when the
// operation finishes.
type AsyncResult struct {
	Done <-chan error
}

// DriveBackend is the capability a storage backend implements. Sync backs
// return ok=true with the final error; async backends return ok=false and
// an AsyncResult whose Done channel fires later.
type DriveBackend interface {
	ReadAt(buf []byte, offsetBytes int64) (ok bool, err error, async AsyncResult)
	WriteAt(buf []byte, offsetBytes int64) (ok bool, err error, async AsyncResult)
	PrefetchAt(offsetBytes int64, size int) (ok bool, err error, async AsyncResult)
	Cancel()
}

type pendingCompletion struct {
	cb      CompletionCallback
	userPtr interface{}
	err     error
}

// DriveHandle is the Block Layer's public surface: drive_read, drive_write,
// drive_prefetch, drive_cancel_transfers, drive_check_complete. At most one
// request may be in flight per handle at any instant.
type DriveHandle struct {
	Kind         DriveType
	CHS          CHSGeometry
	TotalSectors uint64
	Writable     bool
	Backend      DriveBackend

	mu          sync.Mutex
	inFlight    bool
	generation  uint64
	completions chan pendingCompletion
}

// NewDriveHandle returns a drive handle backed by backend. backend may be
// nil to model an empty drive bay (MediaMissing on any access).
func NewDriveHandle(kind DriveType, chs CHSGeometry, totalSectors uint64, writable bool, backend DriveBackend) *DriveHandle {
	return &DriveHandle{
		Kind:         kind,
		CHS:          chs,
		TotalSectors: totalSectors,
		Writable:     writable,
		Backend:      backend,
		completions:  make(chan pendingCompletion, 4),
	}
}

// Read implements drive_read.
func (d *DriveHandle) Read(buf []byte, offsetBytes int64, userPtr interface{}, cb CompletionCallback) (Completion, error) {
	return d.issue(func() (bool, error, AsyncResult) {
		return d.Backend.ReadAt(buf, offsetBytes)
	}, userPtr, cb)
}

// Write implements drive_write.
func (d *DriveHandle) Write(buf []byte, offsetBytes int64, userPtr interface{}, cb CompletionCallback) (Completion, error) {
	if !d.Writable {
		return CompletionSync, ErrWriteProtected
	}
	return d.issue(func() (bool, error, AsyncResult) {
		return d.Backend.WriteAt(buf, offsetBytes)
	}, userPtr, cb)
}

// Prefetch implements drive_prefetch — a hint whose completion is
// indistinguishable from an async no-op.
func (d *DriveHandle) Prefetch(offsetBytes int64, size int, userPtr interface{}, cb CompletionCallback) (Completion, error) {
	return d.issue(func() (bool, error, AsyncResult) {
		return d.Backend.PrefetchAt(offsetBytes, size)
	}, userPtr, cb)
}

func (d *DriveHandle) issue(op func() (bool, error, AsyncResult), userPtr interface{}, cb CompletionCallback) (Completion, error) {
	if d.Backend == nil {
		return CompletionSync, ErrMediaMissing
	}

	d.mu.Lock()
	if d.inFlight {
		d.mu.Unlock()
		return CompletionSync, ErrBusyViolation
	}
	d.inFlight = true
	gen := d.generation
	d.mu.Unlock()

	ok, err, async := op()
	if ok {
		d.mu.Lock()
		d.inFlight = false
		d.mu.Unlock()
		return CompletionSync, err
	}

	go func() {
		opErr := <-async.Done
		d.mu.Lock()
		defer d.mu.Unlock()
		if gen != d.generation {
			return
		}
		d.completions <- pendingCompletion{cb: cb, userPtr: userPtr, err: opErr}
	}()
	return CompletionAsync, nil
}

// CancelTransfers implements drive_cancel_transfers: every in-flight
// request is marked cancelled and guaranteed never to invoke its callback.
// The caller must reset device state immediately afterward.
func (d *DriveHandle) CancelTransfers() {
	d.mu.Lock()
	d.generation++
	d.inFlight = false
	d.mu.Unlock()

	if d.Backend != nil {
		d.Backend.Cancel()
	}

	for {
		select {
		case <-d.completions:
		default:
			return
		}
	}
}

// CheckComplete implements drive_check_complete: it drains any ready async
// completions and invokes their callbacks on the caller's stack.
func (d *DriveHandle) CheckComplete() {
	for {
		select {
		case ev := <-d.completions:
			d.mu.Lock()
			d.inFlight = false
			d.mu.Unlock()
			if ev.cb != nil {
				ev.cb(ev.userPtr, ev.err)
			}
		default:
			return
		}
	}
}
