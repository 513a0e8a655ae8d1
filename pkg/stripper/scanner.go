package stripper

import (
	"bufio"
	"io"
)

// scanner reads the source one byte at a time and tracks whether the
// cursor is inside a comment or a string literal.
type scanner struct {
	r        *bufio.Reader
	pushed   int // pushed back byte, -1 when empty
	newlines int // newlines read since the last takeNewlines
	err      error

	inComment  bool
	inString   bool
	longString bool
	escaped    bool
	quote      byte
}

func newScanner(r io.Reader) *scanner {
	return &scanner{r: bufio.NewReader(r), pushed: -1}
}

// read returns the next byte. It returns false at the end of the input or
// on a read error, which is kept in sc.err.
func (sc *scanner) read() (byte, bool) {
	var c byte
	if sc.pushed >= 0 {
		c = byte(sc.pushed)
		sc.pushed = -1
	} else {
		b, err := sc.r.ReadByte()
		if err != nil {
			if err != io.EOF && sc.err == nil {
				sc.err = err
			}
			return 0, false
		}
		c = b
	}
	if c == '\n' {
		sc.newlines++
	}
	return c, true
}

// unread pushes back the byte returned by the last read.
func (sc *scanner) unread(c byte) {
	if c == '\n' {
		sc.newlines--
	}
	sc.pushed = int(c)
}

// peekRun reports whether the next n bytes all equal q.
// It must only be called directly after read.
func (sc *scanner) peekRun(q byte, n int) bool {
	b, _ := sc.r.Peek(n)
	if len(b) < n {
		return false
	}
	for _, x := range b {
		if x != q {
			return false
		}
	}
	return true
}

func (sc *scanner) takeNewlines() int {
	n := sc.newlines
	sc.newlines = 0
	return n
}

func (sc *scanner) literalOpen() bool {
	return sc.inComment || sc.inString
}

func (sc *scanner) reset() {
	sc.inComment = false
	sc.inString = false
	sc.longString = false
	sc.escaped = false
	sc.quote = 0
}

// literal advances the comment/string state past c, which has just been
// read. It reports whether c is part of a comment or a string literal.
// Such bytes are passed to emit together with any quote bytes consumed
// while looking ahead for a triple quote. The newline that ends a comment
// is not part of it and is left to the caller.
func (sc *scanner) literal(c byte, emit func(byte) error) (bool, error) {
	if sc.inComment {
		if c == '\n' || c == '\r' {
			sc.inComment = false
			return false, nil
		}
		return true, emit(c)
	}

	if sc.inString {
		if err := emit(c); err != nil {
			return true, err
		}
		switch {
		case sc.escaped:
			sc.escaped = false
		case c == '\\':
			sc.escaped = true
		case c != sc.quote:
			// A quote of the other kind is data.
		case !sc.longString:
			sc.inString = false
			sc.quote = 0
		case sc.peekRun(c, 2):
			if err := sc.consume(2, emit); err != nil {
				return true, err
			}
			sc.inString = false
			sc.longString = false
			sc.quote = 0
		}
		return true, nil
	}

	switch c {
	case '#':
		sc.inComment = true
		return true, emit(c)
	case '\'', '"':
		if err := emit(c); err != nil {
			return true, err
		}
		switch {
		case sc.peekRun(c, 2):
			sc.inString = true
			sc.longString = true
			sc.quote = c
			return true, sc.consume(2, emit)
		case sc.peekRun(c, 1):
			// Empty string.
			return true, sc.consume(1, emit)
		}
		sc.inString = true
		sc.quote = c
		return true, nil
	}
	return false, nil
}

func (sc *scanner) consume(n int, emit func(byte) error) error {
	for i := 0; i < n; i++ {
		c, ok := sc.read()
		if !ok {
			return nil
		}
		if err := emit(c); err != nil {
			return err
		}
	}
	return nil
}

// isDelimiter reports whether c separates terms outside literals.
func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ';', '\\':
		return true
	}
	return false
}

// isSignatureSpace reports whether c may appear between the tokens of a
// function signature.
func isSignatureSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\\':
		return true
	}
	return false
}
