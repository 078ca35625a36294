package devices

import (
	"bufio"
	"encoding/binary"
	"net"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// SyncRawFileBackend backs a drive with a plain file, every operation
// completing synchronously via pread(2)/pwrite(2). This is the default,
// lowest-latency backend for a local disk image.
type SyncRawFileBackend struct {
	file *os.File
}

// NewSyncRawFileBackend opens path for a synchronous raw-file backend.
func NewSyncRawFileBackend(path string, writable bool) (*SyncRawFileBackend, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}
	return &SyncRawFileBackend{file: f}, nil
}

func (b *SyncRawFileBackend) ReadAt(buf []byte, offsetBytes int64) (bool, error, AsyncResult) {
	n, err := unix.Pread(int(b.file.Fd()), buf, offsetBytes)
	if err == nil && n < len(buf) {
		err = ErrAddressOutOfRange
	}
	return true, wrapIOError(err), AsyncResult{}
}

func (b *SyncRawFileBackend) WriteAt(buf []byte, offsetBytes int64) (bool, error, AsyncResult) {
	_, err := unix.Pwrite(int(b.file.Fd()), buf, offsetBytes)
	return true, wrapIOError(err), AsyncResult{}
}

// PrefetchAt implements the "hint only" semantics of drive_prefetch using
// Fadvise(FADV_WILLNEED), a real readahead hint rather than a simulated
// no-op.
func (b *SyncRawFileBackend) PrefetchAt(offsetBytes int64, size int) (bool, error, AsyncResult) {
	_ = unix.Fadvise(int(b.file.Fd()), offsetBytes, int64(size), unix.FADV_WILLNEED)
	return true, nil, AsyncResult{}
}

func (b *SyncRawFileBackend) Cancel() {}

func (b *SyncRawFileBackend) Close() error { return b.file.Close() }

func wrapIOError(err error) error {
	if err == nil {
		return nil
	}
	return ErrDriveIOError
}

// ChunkedFileBackend models the "Chunked-FileBacked" variant from the
// redesign notes: reads and writes are dispatched to a worker goroutine so
// callers observe Async completion, exercising the Block Layer's async
// path (and the execution loop's drive_check_complete draining) even
// against a local file.
type ChunkedFileBackend struct {
	mu   sync.Mutex
	file *os.File
}

// NewChunkedFileBackend opens path for chunked, asynchronously-completed access.
func NewChunkedFileBackend(path string, writable bool) (*ChunkedFileBackend, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}
	return &ChunkedFileBackend{file: f}, nil
}

func (b *ChunkedFileBackend) ReadAt(buf []byte, offsetBytes int64) (bool, error, AsyncResult) {
	done := make(chan error, 1)
	go func() {
		n, err := unix.Pread(int(b.file.Fd()), buf, offsetBytes)
		if err == nil && n < len(buf) {
			err = ErrAddressOutOfRange
		}
		done <- wrapIOError(err)
	}()
	return false, nil, AsyncResult{Done: done}
}

func (b *ChunkedFileBackend) WriteAt(buf []byte, offsetBytes int64) (bool, error, AsyncResult) {
	done := make(chan error, 1)
	go func() {
		_, err := unix.Pwrite(int(b.file.Fd()), buf, offsetBytes)
		done <- wrapIOError(err)
	}()
	return false, nil, AsyncResult{Done: done}
}

func (b *ChunkedFileBackend) PrefetchAt(offsetBytes int64, size int) (bool, error, AsyncResult) {
	_ = unix.Fadvise(int(b.file.Fd()), offsetBytes, int64(size), unix.FADV_WILLNEED)
	return true, nil, AsyncResult{}
}

func (b *ChunkedFileBackend) Cancel() {}

func (b *ChunkedFileBackend) Close() error { return b.file.Close() }

// NetworkBackend is the "Network" variant: a minimal block-read/write
// protocol over a TCP connection (op byte, offset uint64, size uint32, then
// payload), for the [config] `driver=network` key. This is a narrow,
// supplementary backend — no example repo in the retrieval pack implements
// a network block protocol, so it is written directly against net.Conn
// rather than adopting an unrelated library.
type NetworkBackend struct {
	mu   sync.Mutex
	conn net.Conn
	rw   *bufio.ReadWriter
}

// NewNetworkBackend dials addr for a network-backed drive.
func NewNetworkBackend(addr string) (*NetworkBackend, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &NetworkBackend{
		conn: conn,
		rw:   bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn)),
	}, nil
}

const (
	netOpRead  = 1
	netOpWrite = 2
)

func (b *NetworkBackend) ReadAt(buf []byte, offsetBytes int64) (bool, error, AsyncResult) {
	done := make(chan error, 1)
	go func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if err := writeHeader(b.rw.Writer, netOpRead, offsetBytes, uint32(len(buf))); err != nil {
			done <- ErrDriveIOError
			return
		}
		if _, err := b.rw.Reader.Read(buf); err != nil {
			done <- ErrDriveIOError
			return
		}
		done <- nil
	}()
	return false, nil, AsyncResult{Done: done}
}

func (b *NetworkBackend) WriteAt(buf []byte, offsetBytes int64) (bool, error, AsyncResult) {
	done := make(chan error, 1)
	go func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if err := writeHeader(b.rw.Writer, netOpWrite, offsetBytes, uint32(len(buf))); err != nil {
			done <- ErrDriveIOError
			return
		}
		if _, err := b.rw.Writer.Write(buf); err != nil {
			done <- ErrDriveIOError
			return
		}
		done <- b.rw.Writer.Flush()
	}()
	return false, nil, AsyncResult{Done: done}
}

func (b *NetworkBackend) PrefetchAt(offsetBytes int64, size int) (bool, error, AsyncResult) {
	// Hint only; no wire message is worth the round trip for readahead.
	return true, nil, AsyncResult{}
}

func (b *NetworkBackend) Cancel() {}

func (b *NetworkBackend) Close() error { return b.conn.Close() }

func writeHeader(w *bufio.Writer, op byte, offset int64, size uint32) error {
	hdr := make([]byte, 13)
	hdr[0] = op
	binary.BigEndian.PutUint64(hdr[1:9], uint64(offset))
	binary.BigEndian.PutUint32(hdr[9:13], size)
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	return w.Flush()
}
