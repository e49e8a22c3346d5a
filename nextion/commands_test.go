package nextion

import (
	"bytes"
	"reflect"
	"testing"
)

func terminated(s string) []byte {
	return append([]byte(s), 0xff, 0xff, 0xff)
}

func TestCommandBytes(t *testing.T) {
	tests := []struct {
		name string
		cmd  Cmd
		want []byte
	}{
		{"request page", RequestPage(), terminated("sendme")},
		{"set page", SetPage(3), terminated("page 3")},
		{"set page 0", SetPage(0), terminated("page 0")},
		{"set text", SetText("t0", "Yayyyyy"), terminated(`t0.txt="Yayyyyy"`)},
		{"set text verbatim", SetText("t0", `a "b" \r`), terminated(`t0.txt="a "b" \r"`)},
		{"show", SetVisibility("b0", true), terminated("vis b0,1")},
		{"hide", SetVisibility("b0", false), terminated("vis b0,0")},
		{"circle", DrawCircle(10, 20, 5, Red), terminated("cir 10,20,5,RED")},
		{"filled circle", DrawFilledCircle(100, 100, 50, RGBColor(0x1d, 0xde, 0x47)), terminated("cirs 100,100,50,7912")},
		{"refresh", Refresh("p0"), terminated("ref p0")},
		{"raw", Raw("dim=50"), terminated("dim=50")},
		{"raw empty", Raw(""), []byte{0xff, 0xff, 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.Bytes(); !bytes.Equal(got, tt.want) {
				t.Errorf("Bytes() = '% x', want '% x'", got, tt.want)
			}
		})
	}
}

func TestSetPageWireFormat(t *testing.T) {
	want := []byte{'p', 'a', 'g', 'e', ' ', '3', 0xff, 0xff, 0xff}
	if got := SetPage(3).Bytes(); !bytes.Equal(got, want) {
		t.Errorf("SetPage(3) = '% x', want '% x'", got, want)
	}
}

func TestMultiCommandSequences(t *testing.T) {
	if got, want := SetBackgroundColor("b0", Blue), []Cmd{"b0.bco=BLUE", "ref b0"}; !reflect.DeepEqual(got, want) {
		t.Errorf("SetBackgroundColor() = %v, want %v", got, want)
	}
	if got, want := ClickButton("b1"), []Cmd{"click b1,1", "click b1,0"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ClickButton() = %v, want %v", got, want)
	}

	want := append(terminated("click b1,1"), terminated("click b1,0")...)
	if got := Encode(ClickButton("b1")...); !bytes.Equal(got, want) {
		t.Errorf("Encode() = '% x', want '% x'", got, want)
	}
	if got := Encode(); len(got) != 0 {
		t.Errorf("Encode() without commands = '% x'", got)
	}
}

// Commands must never be mistaken for frames by a peer using the same framing
func TestEncodeDecodeFraming(t *testing.T) {
	var frames []Frame
	d := NewDecoder(&Handlers{ReceivedData: func(f Frame) { frames = append(frames, f) }}, nil)
	d.Ingest(Encode(SetBackgroundColor("b0", Green)...))

	want := []Frame{Frame("b0.bco=GREEN"), Frame("ref b0")}
	if !reflect.DeepEqual(frames, want) {
		t.Errorf("frames = %q, want %q", frames, want)
	}
}
