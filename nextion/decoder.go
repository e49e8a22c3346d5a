package nextion

import (
	log "github.com/sirupsen/logrus"
)

// TermByte repeated three times terminates every frame in both directions
const TermByte byte = 0xff

// Terminator ends every command and every frame sent by the display
var Terminator = [3]byte{TermByte, TermByte, TermByte}

type decoderState byte

const (
	idle      decoderState = iota // no frame in progress
	receiving                     // buffer populated, terminator run tracked
)

func (s decoderState) String() string {
	if s == receiving {
		return "receiving"
	}
	return "idle"
}

// Decoder reassembles frames from a byte stream delivered in chunks of any
// size and dispatches them to Handlers.
//
// A Decoder is not safe for concurrent use. It is driven by a single reader;
// all callbacks run within Ingest.
type Decoder struct {
	h *Handlers
	m *Metrics

	state decoderState
	buf   []byte
	run   int // consecutive TermByte seen, 0..3
	page  uint8
}

// NewDecoder returns an idle decoder dispatching to h. m may be nil.
func NewDecoder(h *Handlers, m *Metrics) *Decoder {
	return &Decoder{h: h, m: m, buf: make([]byte, 0, 32)}
}

// Page returns the page reported by the last page event
func (d *Decoder) Page() uint8 { return d.page }

// Reset drops a partially received frame. The current page is kept.
func (d *Decoder) Reset() {
	if d.state == receiving && len(d.buf) > 0 {
		log.Debugf("Discarding partial frame '% x'", d.buf)
	}
	d.state = idle
	d.buf = d.buf[:0]
	d.run = 0
}

// Write implements io.Writer, it never fails
func (d *Decoder) Write(p []byte) (int, error) {
	d.Ingest(p)
	return len(p), nil
}

// Ingest processes chunk byte by byte, emitting events for every frame it completes.
func (d *Decoder) Ingest(chunk []byte) {
	for _, b := range chunk {
		if d.state == idle {
			d.state = receiving
			d.buf = d.buf[:0]
			d.run = 0
		}

		if b == TermByte {
			d.run++
		} else {
			d.run = 0
		}
		d.buf = append(d.buf, b)

		if d.run == len(Terminator) {
			d.state = idle
			f := make(Frame, len(d.buf)-len(Terminator))
			copy(f, d.buf)
			d.buf = d.buf[:0]
			d.run = 0
			d.dispatch(f)
		}
	}
}

// dispatch emits the generic event for f, then the typed one if the tag is known
func (d *Decoder) dispatch(f Frame) {
	tag, ok := f.Tag()
	d.m.frame(tag, ok)
	log.Debugf("Frame received: '%v'", f)
	d.h.receivedData(f)
	if !ok {
		return
	}

	fields := f.Payload()
	switch tag {
	case TagTouch:
		e := TouchEvent{Fields: len(fields)}
		if e.Fields > 3 {
			e.Fields = 3
		}
		if len(fields) > 0 {
			e.Page = fields[0]
		}
		if len(fields) > 1 {
			e.ID = fields[1]
		}
		if len(fields) > 2 {
			e.State = TouchState(fields[2])
		} else {
			d.m.malformed()
			log.Debugf("Short touch frame '%v', %d of 3 fields", f, len(fields))
		}
		d.m.touch()
		d.h.touch(e)
	case TagPage:
		if len(fields) == 0 {
			d.m.malformed()
			log.Debugf("Page frame '%v' without page number", f)
			d.h.pageChanged(PageEvent{NoPage: true})
			return
		}
		if d.page != fields[0] {
			log.Debugf("Page changed: %d --> %d", d.page, fields[0])
		}
		d.page = fields[0]
		d.m.pageChange()
		d.h.pageChanged(PageEvent{Page: d.page})
	}
}
