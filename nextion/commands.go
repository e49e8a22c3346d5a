package nextion

import (
	"fmt"
	"strings"
)

// Cmd is the ASCII text of a single display instruction, without terminator.
// Arguments are not escaped; the firmware gets them verbatim.
type Cmd string

// Bytes serializes the command for the wire: the character codes of c followed by the terminator
func (c Cmd) Bytes() []byte {
	b := make([]byte, 0, len(c)+len(Terminator))
	b = append(b, string(c)...)
	return append(b, Terminator[:]...)
}

// Encode serializes cmds in order, each one terminated independently
func Encode(cmds ...Cmd) []byte {
	var b []byte
	for _, c := range cmds {
		b = append(b, c.Bytes()...)
	}
	return b
}

// RequestPage makes the display answer with a page event (tag 0x66).
// It is recommended to send it from the onload function of every page, too.
func RequestPage() Cmd { return "sendme" }

// SetPage switches to page n
func SetPage(n uint) Cmd { return Cmd(fmt.Sprintf("page %d", n)) }

// SetText sets the txt attribute of component cmp
func SetText(cmp, text string) Cmd { return Cmd(cmp + `.txt="` + text + `"`) }

// SetVisibility shows or hides component cmp
func SetVisibility(cmp string, visible bool) Cmd {
	if visible {
		return Cmd("vis " + cmp + ",1")
	}
	return Cmd("vis " + cmp + ",0")
}

// DrawCircle draws the outline of a circle
func DrawCircle(x, y, r int, c Color) Cmd {
	return Cmd(fmt.Sprintf("cir %d,%d,%d,%s", x, y, r, c))
}

// DrawFilledCircle draws a filled circle
func DrawFilledCircle(x, y, r int, c Color) Cmd {
	return Cmd(fmt.Sprintf("cirs %d,%d,%d,%s", x, y, r, c))
}

// Refresh redraws component cmp
func Refresh(cmp string) Cmd { return Cmd("ref " + cmp) }

// SetBackgroundColor sets bco of cmp and forces a redraw. Both commands have
// to reach the display in this order.
func SetBackgroundColor(cmp string, c Color) []Cmd {
	return []Cmd{Cmd(cmp + ".bco=" + string(c)), Refresh(cmp)}
}

// ClickButton simulates a press and a release of button cmp
func ClickButton(cmp string) []Cmd {
	return []Cmd{Cmd("click " + cmp + ",1"), Cmd("click " + cmp + ",0")}
}

// Raw passes text through as a command, for instructions not modeled here
func Raw(text string) Cmd { return Cmd(text) }

func (c Cmd) String() string { return string(c) }

// joinCmds is used for log output of multi-command sequences
func joinCmds(cmds []Cmd) string {
	s := make([]string, len(cmds))
	for i, c := range cmds {
		s[i] = string(c)
	}
	return strings.Join(s, "; ")
}
