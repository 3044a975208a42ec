package report

import "fmt"

// TextPosition is the span of a token or of an AST node in an Oberon source
// file.  Diagnostics are anchored at the start of the span and the scanner
// reports lines from 1 and columns from 0.
type TextPosition struct {
	StartLn, StartCol int
	EndLn, EndCol     int // the end column is one past the last character
}

// TextPositionFromRange returns the span from the start of `start` to the end
// of `end`.  Missing positions yield the other position so that nodes built
// during error recovery still have a location.
func TextPositionFromRange(start, end *TextPosition) *TextPosition {
	if start == nil {
		return end
	} else if end == nil {
		return start
	}

	return &TextPosition{
		StartLn:  start.StartLn,
		StartCol: start.StartCol,
		EndLn:    end.EndLn,
		EndCol:   end.EndCol,
	}
}

// String formats the start of the span as `line:column`.
func (tp *TextPosition) String() string {
	return fmt.Sprintf("%d:%d", tp.StartLn, tp.StartCol)
}
