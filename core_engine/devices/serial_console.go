package devices

import (
	"fmt"

	serial "github.com/daedaluz/goserial"
)

// SerialConsole bridges a SerialPortDevice to a host pseudoterminal, so a
// guest's COM1 output/input can be driven from an ordinary terminal emulator
// attached to the PTY's slave side.
type SerialConsole struct {
	master *serial.Port
	slave  *serial.Port
	port   *SerialPortDevice
	stop   chan struct{}
}

// NewSerialConsole opens a PTY pair and puts the master side in raw mode;
// SlavePath() reports an fd-backed path for the slave side. Call Start to
// route port's output to the master and begin pumping host input into
// port's receive queue.
func NewSerialConsole(port *SerialPortDevice) (*SerialConsole, error) {
	master, slave, err := serial.OpenPTY(nil, nil)
	if err != nil {
		return nil, err
	}
	if err := master.MakeRaw(); err != nil {
		master.Close()
		slave.Close()
		return nil, err
	}
	return &SerialConsole{master: master, slave: slave, port: port, stop: make(chan struct{})}, nil
}

// SlavePath returns /proc/self/fd/<n> for the PTY slave's descriptor
// (e.g. /proc/self/fd/7); the /dev/pts name behind it is not resolved.
func (c *SerialConsole) SlavePath() string {
	return ptyName(c.slave)
}

func ptyName(p *serial.Port) string {
	// goserial's Port does not expose its path directly; callers that need
	// it resolve /proc/self/fd/<Fd()> themselves. Returning the fd-backed
	// path keeps this bridge independent of that detail.
	return fmt.Sprintf("/proc/self/fd/%d", p.Fd())
}

// Start begins a background pump from the PTY master into the UART's
// receive queue, and installs the UART's transmit path to write to the
// master. Returns immediately; call Close to stop.
func (c *SerialConsole) Start() {
	c.port.outputWriter = c.master
	go c.pumpInput()
}

func (c *SerialConsole) pumpInput() {
	buf := make([]byte, 256)
	for {
		select {
		case <-c.stop:
			return
		default:
		}
		n, err := c.master.Read(buf)
		if err != nil {
			return
		}
		for i := 0; i < n; i++ {
			c.port.PushByte(buf[i])
		}
	}
}

// Close stops the input pump and closes both ends of the PTY.
func (c *SerialConsole) Close() error {
	close(c.stop)
	c.slave.Close()
	return c.master.Close()
}
