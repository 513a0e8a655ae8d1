package stripper

import (
	"bytes"
	"log/slog"
)

// spliceHint removes the hint between the colon and the initializer of
// a term such as "x:int=5", leaving "x=5".
func (e *engine) spliceHint(colon, assign int, delim byte) error {
	kept := e.syms.delta(0, colon).add(e.syms.delta(assign, len(e.buf)))
	n := copy(e.buf[colon:], e.buf[assign:])
	e.buf = e.buf[:colon+n]
	return e.writeTerm(delim, kept)
}

// stripBareHint handles a hint colon whose initializer, if any, is not
// in the current term. It reads ahead until the hint ends:
//
//	x: int = 5   -> x = 5
//	x: int       -> x
//
// Bytes read ahead are kept in the fallback buffer so they can be written
// back verbatim when the hint cannot be delimited.
func (e *engine) stripBareHint(colon int, delim byte) error {
	kept := e.syms.delta(0, colon)
	depth := e.syms.delta(colon, len(e.buf))
	e.fallback = append(e.fallback[:0], e.buf[colon:]...)
	e.buf = e.buf[:colon]

	if kind := unmatchedClosing(depth); kind != NoErrors {
		return e.replayHint(kind, kept)
	}
	if delim == 0 {
		return e.endHintAtEOF(depth, kept, len(e.fallback))
	}
	e.sc.unread(delim)

	wsStart := len(e.fallback)
	for {
		c, ok := e.sc.read()
		if !ok {
			return e.endHintAtEOF(depth, kept, wsStart)
		}

		if !e.sc.literalOpen() && depth.zero() && e.endsHint(c, e.fallback[wsStart:]) {
			e.sc.unread(c)
			ws := e.fallback[wsStart:]
			if c == '\n' {
				// Trailing spaces go with the hint; a CR stays with its LF.
				if bytes.HasSuffix(ws, []byte{'\r'}) {
					ws = []byte{'\r'}
				} else {
					ws = nil
				}
			}
			if err := e.pushAll(ws); err != nil {
				return err
			}
			return e.writeTerm(0, kept)
		}

		lit, err := e.sc.literal(c, e.appendFallback)
		if err != nil {
			return err
		}
		if lit {
			wsStart = len(e.fallback)
			continue
		}
		if err := e.appendFallback(c); err != nil {
			return err
		}

		switch c {
		case ' ', '\t', '\\', '\r', '\n':
			continue
		case '{':
			depth.curly++
		case '}':
			depth.curly--
		case '[':
			depth.square++
		case ']':
			depth.square--
		case '(':
			depth.round++
		case ')':
			depth.round--
		}
		wsStart = len(e.fallback)

		if kind := unmatchedClosing(depth); kind != NoErrors {
			return e.replayHint(kind, kept)
		}
	}
}

// endsHint reports whether c, read outside brackets, terminates a hint
// whose trailing whitespace is ws.
func (e *engine) endsHint(c byte, ws []byte) bool {
	switch c {
	case ';', '#':
		return true
	case '\n':
		return !isContinued(ws)
	case '=':
		if e.sc.peekRun('=', 1) {
			return false
		}
		if n := len(e.fallback); n > 0 {
			switch e.fallback[n-1] {
			case '=', '!', '<', '>':
				return false
			}
		}
		return true
	}
	return false
}

// isContinued reports whether ws ends with a line continuation.
func isContinued(ws []byte) bool {
	return bytes.HasSuffix(bytes.TrimSuffix(ws, []byte{'\r'}), []byte{'\\'})
}

func unmatchedClosing(depth brackets) ErrorMask {
	switch {
	case depth.curly < 0:
		return ErrTooMuchClosingCurlyBrackets
	case depth.square < 0:
		return ErrTooMuchClosingSquareBrackets
	case depth.round < 0:
		return ErrTooMuchClosingRoundBrackets
	}
	return NoErrors
}

// endHintAtEOF finishes a hint that runs to the end of the input.
func (e *engine) endHintAtEOF(depth brackets, kept brackets, wsStart int) error {
	if e.sc.inString {
		return e.fatal(ErrUnexpectedEOF|ErrFunctionReturnTypeHintParse,
			"got EOF instead of type hint end at line %d, string was not closed", e.line)
	}
	if !depth.zero() || isContinued(e.fallback[wsStart:]) {
		e.replayHint(NoErrors, kept)
		return e.fatal(ErrUnexpectedEOF, "got EOF instead of type hint end at line %d", e.line)
	}
	return e.writeTerm(0, kept)
}

// replayHint writes the term and the bytes read ahead unchanged.
func (e *engine) replayHint(kind ErrorMask, kept brackets) error {
	var err error
	if kind != NoErrors {
		err = e.fail(kind, "closing bracket without opened one in type hint at line %d, term '%s'", e.line, e.buf)
	}
	e.logf(slog.LevelDebug, "type hint at line %d written back unchanged", e.line)
	e.w.Write(e.buf)
	e.w.Write(e.fallback)
	e.fallback = e.fallback[:0]
	if ferr := e.finishTerm(0, kept); err == nil {
		err = ferr
	}
	return err
}

func (e *engine) appendFallback(c byte) error {
	if len(e.fallback) >= e.maxTermSize {
		return e.overflow()
	}
	e.fallback = append(e.fallback, c)
	return nil
}
