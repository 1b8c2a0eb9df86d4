package ingest

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"rsc.io/pdf"
)

// fallbackGlyphWidth is used, in thousandths of an em, for fonts that ship
// no /Widths array (the standard 14 fonts).
const fallbackGlyphWidth = 500

// matrix is a PDF affine transform [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func translate(tx, ty float64) matrix {
	return matrix{1, 0, 0, 1, tx, ty}
}

type graphicsState struct {
	ctm       matrix
	font      pdf.Font
	hasFont   bool
	fontSize  float64
	charSpace float64
	wordSpace float64
	scale     float64
	leading   float64
	rise      float64
}

// textWalker interprets a page content stream and emits one run per shown
// string, keeping the spaces rsc.io/pdf's Content drops.
type textWalker struct {
	page  pdf.Page
	gs    graphicsState
	stack []graphicsState
	tm    matrix
	tlm   matrix
	runs  []pdf.Text
}

func pageRuns(page pdf.Page) []pdf.Text {
	w := &textWalker{
		page: page,
		gs:   graphicsState{ctm: identity, scale: 1},
		tm:   identity,
		tlm:  identity,
	}
	contents := page.V.Key("Contents")
	if contents.IsNull() {
		return nil
	}
	if contents.Kind() == pdf.Array {
		for i := 0; i < contents.Len(); i++ {
			pdf.Interpret(contents.Index(i), w.do)
		}
	} else {
		pdf.Interpret(contents, w.do)
	}
	return w.runs
}

func (w *textWalker) do(stk *pdf.Stack, op string) {
	args := make([]pdf.Value, stk.Len())
	for i := len(args) - 1; i >= 0; i-- {
		args[i] = stk.Pop()
	}
	num := func(i int) float64 {
		if i < len(args) {
			return args[i].Float64()
		}
		return 0
	}

	switch op {
	case "q":
		w.stack = append(w.stack, w.gs)
	case "Q":
		if n := len(w.stack); n > 0 {
			w.gs = w.stack[n-1]
			w.stack = w.stack[:n-1]
		}
	case "cm":
		w.gs.ctm = matrix{num(0), num(1), num(2), num(3), num(4), num(5)}.mul(w.gs.ctm)
	case "BT":
		w.tm, w.tlm = identity, identity
	case "Tf":
		if len(args) == 2 {
			w.gs.font = w.page.Font(args[0].Name())
			w.gs.hasFont = true
			w.gs.fontSize = num(1)
		}
	case "Tc":
		w.gs.charSpace = num(0)
	case "Tw":
		w.gs.wordSpace = num(0)
	case "Tz":
		w.gs.scale = num(0) / 100
	case "TL":
		w.gs.leading = num(0)
	case "Ts":
		w.gs.rise = num(0)
	case "Td":
		w.moveLine(num(0), num(1))
	case "TD":
		w.gs.leading = -num(1)
		w.moveLine(num(0), num(1))
	case "Tm":
		w.tlm = matrix{num(0), num(1), num(2), num(3), num(4), num(5)}
		w.tm = w.tlm
	case "T*":
		w.moveLine(0, -w.gs.leading)
	case "Tj":
		if len(args) == 1 {
			w.show(args[0].RawString())
		}
	case "'":
		w.moveLine(0, -w.gs.leading)
		if len(args) == 1 {
			w.show(args[0].RawString())
		}
	case "\"":
		if len(args) == 3 {
			w.gs.wordSpace = num(0)
			w.gs.charSpace = num(1)
			w.moveLine(0, -w.gs.leading)
			w.show(args[2].RawString())
		}
	case "TJ":
		if len(args) != 1 {
			return
		}
		arr := args[0]
		for i := 0; i < arr.Len(); i++ {
			item := arr.Index(i)
			if item.Kind() == pdf.String {
				w.show(item.RawString())
				continue
			}
			tx := -item.Float64() / 1000 * w.gs.fontSize * w.gs.scale
			w.tm = translate(tx, 0).mul(w.tm)
		}
	}
}

func (w *textWalker) moveLine(tx, ty float64) {
	w.tlm = translate(tx, ty).mul(w.tlm)
	w.tm = w.tlm
}

func (w *textWalker) show(raw string) {
	text := w.decode(raw)
	if text == "" {
		return
	}

	device := w.tm.mul(w.gs.ctm)
	trm := matrix{w.gs.fontSize * w.gs.scale, 0, 0, w.gs.fontSize, 0, w.gs.rise}.mul(device)

	var advance float64
	runes := []rune(text)
	singleByte := len(runes) == len(raw)
	for i, r := range runes {
		width := 0.0
		if singleByte && w.gs.hasFont {
			width = w.gs.font.Width(int(raw[i]))
		}
		if width == 0 {
			width = fallbackGlyphWidth
		}
		tx := width/1000*w.gs.fontSize + w.gs.charSpace
		if r == ' ' {
			tx += w.gs.wordSpace
		}
		advance += tx * w.gs.scale
	}

	font := ""
	if w.gs.hasFont {
		font = w.gs.font.BaseFont()
	}
	w.runs = append(w.runs, pdf.Text{
		Font:     font,
		FontSize: trm[0],
		X:        trm[4],
		Y:        trm[5],
		W:        advance * device[0],
		S:        text,
	})
	w.tm = translate(advance, 0).mul(w.tm)
}

func (w *textWalker) decode(raw string) string {
	if w.gs.hasFont {
		if enc := w.gs.font.Encoder(); enc != nil {
			return enc.Decode(raw)
		}
	}
	if utf8.ValidString(raw) {
		return raw
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().String(raw)
	if err != nil {
		return ""
	}
	return decoded
}
