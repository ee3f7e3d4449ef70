// Package matrix maps host keyboard input onto the crkbd switch matrix.
//
// The crkbd is a 3x6 split with three thumb keys per half. Each half scans
// four matrix rows: the left half owns rows 0-3 and the right half rows 4-7.
// Row 3 and row 7 hold the thumb clusters.
package matrix

import "unicode"

const (
	// Rows is the number of matrix rows across both halves.
	Rows = 8
	// Cols is the number of matrix columns per half.
	Cols = 6
	// RowsPerHalf is the number of rows scanned by one half.
	RowsPerHalf = Rows / 2
)

// Half identifies a keyboard half.
type Half int

const (
	// Left is the half wired to rows 0-3.
	Left Half = iota
	// Right is the half wired to rows 4-7.
	Right
)

func (h Half) String() string {
	if h == Right {
		return "right"
	}
	return "left"
}

// Position is a switch in the matrix.
type Position struct {
	Row int
	Col int
}

// Half returns the half that scans p.
func (p Position) Half() Half {
	if p.Row >= RowsPerHalf {
		return Right
	}
	return Left
}

// Named keys that have no printable rune.
var (
	Tab       = Position{Row: 0, Col: 0}
	Ctrl      = Position{Row: 1, Col: 0}
	Shift     = Position{Row: 2, Col: 0}
	Alt       = Position{Row: 3, Col: 3}
	Lower     = Position{Row: 3, Col: 4}
	Space     = Position{Row: 3, Col: 5}
	Backspace = Position{Row: 4, Col: 5}
	RShift    = Position{Row: 6, Col: 5}
	Enter     = Position{Row: 7, Col: 0}
	Raise     = Position{Row: 7, Col: 1}
	Gui       = Position{Row: 7, Col: 2}
	// Esc shares the tab switch on the lower and raise layers.
	Esc = Position{Row: 0, Col: 0}
)

// base layer, one string per row; '\x00' marks a non-printing key.
var base = [Rows]string{
	"\x00qwert",
	"\x00asdfg",
	"\x00zxcvb",
	"\x00\x00\x00\x00\x00 ",
	"yuiop\x00",
	"hjkl;'",
	"nm,./\x00",
	"\x00\x00\x00\x00\x00\x00",
}

var shifted = map[rune]rune{
	':': ';',
	'"': '\'',
	'<': ',',
	'>': '.',
	'?': '/',
}

var lower = [Rows]string{
	"\x00!@#$%",
	"\x00\x00\x00\x00\x00\x00",
	"\x00\x00\x00\x00\x00\x00",
	"\x00\x00\x00\x00\x00\x00",
	"^&*()\x00",
	"-=[]|`",
	"_+{}\\~",
	"\x00\x00\x00\x00\x00\x00",
}

var raise = [Rows]string{
	"\x0012345",
	"\x00\x00\x00\x00\x00\x00",
	"\x00\x00\x00\x00\x00\x00",
	"\x00\x00\x00\x00\x00\x00",
	"67890\x00",
	"\x00\x00\x00\x00\x00\x00",
	"\x00\x00\x00\x00\x00\x00",
	"\x00\x00\x00\x00\x00\x00",
}

type stroke struct {
	layer Position
	key   Position
}

var strokes = buildStrokes()

func buildStrokes() map[rune]stroke {
	out := map[rune]stroke{}
	add := func(layer Position, rows [Rows]string) {
		for row, line := range rows {
			for col, r := range []rune(line) {
				if r == 0 {
					continue
				}
				if _, ok := out[r]; ok {
					continue
				}
				out[r] = stroke{layer: layer, key: Position{Row: row, Col: col}}
			}
		}
	}
	none := Position{Row: -1, Col: -1}
	add(none, base)
	add(Lower, lower)
	add(Raise, raise)
	return out
}

// Lookup returns the switches pressed to type r, modifiers first. Uppercase
// letters and shifted punctuation include the shift key on the opposite
// half.
func Lookup(r rune) ([]Position, bool) {
	switch r {
	case '\n', '\r':
		return []Position{Enter}, true
	case '\t':
		return []Position{Tab}, true
	case '\b':
		return []Position{Backspace}, true
	}
	if unicode.IsUpper(r) {
		s, ok := strokes[unicode.ToLower(r)]
		if !ok {
			return nil, false
		}
		return []Position{shiftFor(s.key), s.key}, true
	}
	if plain, ok := shifted[r]; ok {
		s := strokes[plain]
		return []Position{shiftFor(s.key), s.key}, true
	}
	s, ok := strokes[r]
	if !ok {
		return nil, false
	}
	if s.layer.Row < 0 {
		return []Position{s.key}, true
	}
	return []Position{s.layer, s.key}, true
}

func shiftFor(key Position) Position {
	if key.Half() == Left {
		return RShift
	}
	return Shift
}
