package nextion

import (
	"encoding/json"
	"fmt"
)

// Frame tags sent by the display
const (
	TagTouch byte = 0x65
	TagPage  byte = 0x66
)

// Frame is a decoded frame without its terminator. The first byte is the tag.
type Frame []byte

// Tag returns the frame type tag, ok is false for an empty frame
func (f Frame) Tag() (tag byte, ok bool) {
	if len(f) == 0 {
		return 0, false
	}
	return f[0], true
}

// Payload returns the bytes following the tag
func (f Frame) Payload() []byte {
	if len(f) < 2 {
		return nil
	}
	return f[1:]
}

// String formats f as two-hex-digit bytes, e.g. "65 00 05 01"
func (f Frame) String() string {
	return fmt.Sprintf("% x", []byte(f))
}

func (f Frame) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// TouchState of a touch event
type TouchState uint8

const (
	Released TouchState = 0
	Pressed  TouchState = 1
)

func (s TouchState) String() string {
	switch s {
	case Released:
		return "released"
	case Pressed:
		return "pressed"
	}
	return fmt.Sprintf("TouchState(%d)", uint8(s))
}

// TouchEvent is sent by the display when a component is pressed or released.
type TouchEvent struct {
	Page  uint8
	ID    uint8
	State TouchState

	// Fields is the number of fields present in the frame (0-3), in the order
	// Page, ID, State. Absent fields are zero.
	Fields int
}

// Complete reports whether all fields were present
func (e TouchEvent) Complete() bool { return e.Fields >= 3 }

// MarshalJSON omits fields the frame did not carry
func (e TouchEvent) MarshalJSON() ([]byte, error) {
	m := make(map[string]uint8, 3)
	if e.Fields > 0 {
		m["page"] = e.Page
	}
	if e.Fields > 1 {
		m["id"] = e.ID
	}
	if e.Fields > 2 {
		m["state"] = uint8(e.State)
	}
	return json.Marshal(m)
}

// PageEvent is sent by the display when a page was loaded or after "sendme"
type PageEvent struct {
	Page uint8 `json:"page"`

	// NoPage is set for a page frame that carried no page number. Page is
	// zero then and the current page is left unchanged.
	NoPage bool `json:"-"`
}

// MarshalJSON encodes a missing page number as null
func (e PageEvent) MarshalJSON() ([]byte, error) {
	if e.NoPage {
		return []byte(`{"page":null}`), nil
	}
	return json.Marshal(map[string]uint8{"page": e.Page})
}

// Handlers is the callback table of a protocol instance. Nil entries are
// skipped. Callbacks are invoked synchronously, in the order the underlying
// bytes or conditions arrived, and must not block for long.
type Handlers struct {
	Connected    func()
	Touch        func(TouchEvent)
	PageChanged  func(PageEvent)
	ReceivedData func(Frame)
	Error        func(error)
	Close        func()
}

func (h *Handlers) connected() {
	if h != nil && h.Connected != nil {
		h.Connected()
	}
}

func (h *Handlers) touch(e TouchEvent) {
	if h != nil && h.Touch != nil {
		h.Touch(e)
	}
}

func (h *Handlers) pageChanged(e PageEvent) {
	if h != nil && h.PageChanged != nil {
		h.PageChanged(e)
	}
}

func (h *Handlers) receivedData(f Frame) {
	if h != nil && h.ReceivedData != nil {
		h.ReceivedData(f)
	}
}

func (h *Handlers) fail(err error) {
	if h != nil && h.Error != nil {
		h.Error(err)
	}
}

func (h *Handlers) closed() {
	if h != nil && h.Close != nil {
		h.Close()
	}
}
