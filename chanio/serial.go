package chanio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// SerialBridge is a Registry reached over a single RS-232 line rather
// than a network channel-access gateway, for a rack of motor
// controllers wired directly to the host. It is grounded on
// comm.RemoteDevice's "one exclusive connection, query with a
// terminator-delimited request/response" pattern, reduced to the
// scalar get/set vocabulary chanio.Registry needs: a name followed by
// "?" reads a channel, a name followed by "=value" writes it.
type SerialBridge struct {
	mu        sync.Mutex
	rw        io.ReadWriter
	reader    *bufio.Reader
	connected bool

	strings map[string]*serialStringChannel
	doubles map[string]*serialDoubleChannel
}

// NewSerialBridge opens a serial port with cfg and returns a Registry
// bound to it.
func NewSerialBridge(cfg *serial.Config) (*SerialBridge, error) {
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "chanio: opening serial port")
	}
	return newSerialBridge(port), nil
}

func newSerialBridge(rw io.ReadWriter) *SerialBridge {
	return &SerialBridge{
		rw:        rw,
		reader:    bufio.NewReader(rw),
		connected: true,
		strings:   map[string]*serialStringChannel{},
		doubles:   map[string]*serialDoubleChannel{},
	}
}

// exchange writes cmd terminated by a carriage return and reads one
// carriage-return-terminated reply, the same request/response shape
// comm.RemoteDevice.SendRecv uses over either transport it wraps.
func (b *SerialBridge) exchange(cmd string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := io.WriteString(b.rw, cmd+"\r"); err != nil {
		b.connected = false
		return "", errors.Wrap(err, "chanio: writing to serial port")
	}
	line, err := b.reader.ReadString('\r')
	if err != nil {
		b.connected = false
		return "", errors.Wrap(err, "chanio: reading from serial port")
	}
	b.connected = true
	return strings.TrimSpace(line), nil
}

func (b *SerialBridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// RegisterString implements Registry.
func (b *SerialBridge) RegisterString(name string) StringChannel {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.strings[name]
	if !ok {
		ch = &serialStringChannel{bridge: b, name: name}
		b.strings[name] = ch
	}
	return ch
}

// RegisterDouble implements Registry. initial is unused: a serial
// channel's value always comes from the remote device, never a local
// default.
func (b *SerialBridge) RegisterDouble(name string, initial float64) DoubleChannel {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.doubles[name]
	if !ok {
		ch = &serialDoubleChannel{bridge: b, name: name}
		b.doubles[name] = ch
	}
	return ch
}

type serialStringChannel struct {
	bridge *SerialBridge
	name   string
}

func (c *serialStringChannel) Connected() bool { return c.bridge.Connected() }

func (c *serialStringChannel) Get() string {
	v, err := c.bridge.exchange(c.name + "?")
	if err != nil {
		return ""
	}
	return v
}

func (c *serialStringChannel) Set(v string) {
	c.bridge.exchange(fmt.Sprintf("%s=%s", c.name, v))
}

type serialDoubleChannel struct {
	bridge *SerialBridge
	name   string
}

func (c *serialDoubleChannel) Connected() bool { return c.bridge.Connected() }

func (c *serialDoubleChannel) Get() float64 {
	v, err := c.bridge.exchange(c.name + "?")
	if err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func (c *serialDoubleChannel) Set(v float64) {
	c.bridge.exchange(fmt.Sprintf("%s=%g", c.name, v))
}
