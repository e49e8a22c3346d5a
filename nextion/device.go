package nextion

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

// Device is a protocol instance bound to one display connection, either a
// serial port or a TCP serial bridge.
type Device struct {
	link string
	baud int

	// Metrics is used from the next Connect or Attach on, nil disables them
	Metrics *Metrics

	inner Handlers

	mu        sync.Mutex // guards the fields below
	conn      io.ReadWriteCloser
	connected bool
	closing   bool
	done      chan struct{}

	wlock sync.Mutex // held for a whole Send
	page  atomic.Uint32
}

// NewDevice validates link and baud and returns an unconnected Device
// dispatching to a copy of h. Use socket://[host]:[port] or tcp://[host]:[port] for
// TCP and [serialDevice] or file://[serialDevice] for a direct connection.
func NewDevice(link string, baud int, h *Handlers) (*Device, error) {
	if link == "" {
		return nil, &ConfigError{Field: "link", Value: `""`}
	}
	if baud <= 0 {
		return nil, &ConfigError{Field: "baud", Value: baud}
	}
	u, err := url.Parse(link)
	if err != nil {
		return nil, &ConfigError{Field: "link", Value: link}
	}
	switch u.Scheme {
	case "socket", "tcp":
		if u.Host == "" {
			return nil, &ConfigError{Field: "link", Value: link}
		}
	case "file", "":
		if u.Path == "" {
			return nil, &ConfigError{Field: "link", Value: link}
		}
	default:
		return nil, &ConfigError{Field: "link", Value: link}
	}

	o := &Device{link: link, baud: baud}
	if h != nil {
		o.inner = *h
	}
	pageChanged := o.inner.PageChanged
	o.inner.PageChanged = func(e PageEvent) {
		if !e.NoPage {
			o.page.Store(uint32(e.Page))
		}
		if pageChanged != nil {
			pageChanged(e)
		}
	}
	return o, nil
}

// Link returns the connection string the device was created with
func (o *Device) Link() string { return o.link }

// Page returns the current page as last reported by the display
func (o *Device) Page() uint8 { return uint8(o.page.Load()) }

// Connected reports whether a transport is attached
func (o *Device) Connected() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.connected
}

// Done is closed when the read loop of the current connection has ended
func (o *Device) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

func (o *Device) open() (io.ReadWriteCloser, error) {
	u, err := url.Parse(o.link)
	if err != nil {
		return nil, err
	}

	if u.Scheme == "socket" || u.Scheme == "tcp" {
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, err
		}
		conn.(*net.TCPConn).SetKeepAlive(true)
		conn.(*net.TCPConn).SetKeepAlivePeriod(30 * time.Second)
		return conn, nil
	}
	return serial.OpenPort(&serial.Config{Name: u.Path, Baud: o.baud, Size: 8, Parity: serial.ParityNone, StopBits: serial.Stop1})
}

// Connect opens the transport and starts reading from it. Failures are
// returned and reported to the Error handler as *TransportError.
func (o *Device) Connect() error {
	conn, err := o.open()
	if err != nil {
		te := &TransportError{Op: "open", Err: err}
		o.Metrics.transportError(te.Op)
		log.Errorf("Could not open %v: %v", o.link, err)
		o.inner.fail(te)
		return te
	}
	return o.Attach(conn)
}

// Attach uses an already opened stream as transport, Connect calls it after opening the link.
// It waits for the read loop of a previous connection to end, so its Close
// event precedes the new Connected. Attach must not be called from a handler.
func (o *Device) Attach(conn io.ReadWriteCloser) error {
	o.mu.Lock()
	for {
		if o.connected {
			o.mu.Unlock()
			return fmt.Errorf("nextion: %v is already connected", o.link)
		}
		prev := o.done
		if prev == nil || isClosed(prev) {
			break
		}
		o.mu.Unlock()
		<-prev
		o.mu.Lock()
	}
	o.conn = conn
	o.connected = true
	o.closing = false
	o.done = make(chan struct{})
	o.page.Store(0)
	dec := NewDecoder(&o.inner, o.Metrics)
	done := o.done
	o.mu.Unlock()

	log.Infof("Port connection opened on %v @%v bds", o.link, o.baud)
	o.inner.connected()

	go o.readLoop(conn, dec, done)
	return nil
}

func isClosed(c <-chan struct{}) bool {
	select {
	case <-c:
		return true
	default:
		return false
	}
}

func (o *Device) readLoop(conn io.ReadWriteCloser, dec *Decoder, done chan struct{}) {
	defer func() {
		dec.Reset()
		o.mu.Lock()
		if o.conn == conn {
			o.connected = false
		}
		o.mu.Unlock()
		log.Debugf("Closing, returning from reading loop goroutine")
		o.inner.closed()
		close(done)
	}()

	b := make([]byte, 512)
	for {
		n, err := conn.Read(b)
		if n > 0 {
			log.Debugf("Read b='% x', n=%v", b[:n], n)
			o.Metrics.read(n)
			dec.Ingest(b[:n])
		}
		if err == nil {
			continue
		}

		o.mu.Lock()
		closing := o.closing || o.conn != conn
		o.mu.Unlock()
		if !closing {
			if !errors.Is(err, io.EOF) {
				te := &TransportError{Op: "read", Err: err}
				o.Metrics.transportError(te.Op)
				log.Error(te)
				o.inner.fail(te)
			}
			conn.Close()
		}
		return
	}
}

// Close closes the underlying connection. Any partially received frame is discarded.
func (o *Device) Close() error {
	o.mu.Lock()
	if !o.connected {
		o.mu.Unlock()
		return io.ErrClosedPipe
	}
	o.closing = true
	o.connected = false
	conn := o.conn
	o.mu.Unlock()

	return conn.Close()
}

// Reconnect closes the current connection, if any, and opens the link again
// once its read loop has ended
func (o *Device) Reconnect() error {
	o.Close()
	if done := o.Done(); done != nil {
		<-done
	}
	return o.Connect()
}

// Send writes cmds in order, one write per command. No other Send is
// interleaved. Failures are returned and reported to the Error handler.
func (o *Device) Send(cmds ...Cmd) error {
	o.wlock.Lock()
	defer o.wlock.Unlock()

	o.mu.Lock()
	conn, connected := o.conn, o.connected
	o.mu.Unlock()
	if !connected {
		return &TransportError{Op: "write", Err: io.EOF}
	}

	for _, c := range cmds {
		b := c.Bytes()
		n, err := conn.Write(b)
		log.Debugf("Write b='% x', n=%v, err=%v", b, n, err)
		o.Metrics.written(n)
		if err != nil {
			te := &TransportError{Op: "write", Err: err}
			o.mu.Lock()
			closing := o.closing || o.conn != conn
			o.mu.Unlock()
			if closing {
				log.Debugf("Sending %q aborted by close: %v", joinCmds(cmds), err)
				return te
			}
			o.Metrics.transportError(te.Op)
			log.Errorf("Sending %q failed: %v", joinCmds(cmds), err)
			o.inner.fail(te)
			return te
		}
		o.Metrics.command()
	}
	return nil
}

// RequestPage asks the display for the current page, the answer arrives as page event
func (o *Device) RequestPage() error { return o.Send(RequestPage()) }

// SetPage changes to page n
func (o *Device) SetPage(n uint) error { return o.Send(SetPage(n)) }

// SetText sets the text of a text component
func (o *Device) SetText(cmp, text string) error { return o.Send(SetText(cmp, text)) }

// SetVisibility shows or hides a component
func (o *Device) SetVisibility(cmp string, visible bool) error {
	return o.Send(SetVisibility(cmp, visible))
}

// DrawCircle draws the outline of a circle
func (o *Device) DrawCircle(x, y, r int, c Color) error { return o.Send(DrawCircle(x, y, r, c)) }

// DrawFilledCircle draws a filled circle at x, y
func (o *Device) DrawFilledCircle(x, y, r int, c Color) error {
	return o.Send(DrawFilledCircle(x, y, r, c))
}

// SetBackgroundColor sets the background color of components that support one
func (o *Device) SetBackgroundColor(cmp string, c Color) error {
	return o.Send(SetBackgroundColor(cmp, c)...)
}

// ClickButton presses and releases a button
func (o *Device) ClickButton(cmp string) error { return o.Send(ClickButton(cmp)...) }

// RawCmd sends an arbitrary instruction
func (o *Device) RawCmd(text string) error { return o.Send(Raw(text)) }
