package stripper

import "bytes"

// termSymbols holds the positions of the structural bytes of one term.
// Bytes inside strings and comments embedded in the term are skipped.
type termSymbols struct {
	colons      []int // candidate colons: not ':=' and outside brackets
	curlyOpen   []int
	curlyClose  []int
	squareOpen  []int
	squareClose []int
	roundOpen   []int
	roundClose  []int
	lambda      bool // term ends with a lambda keyword
	assign      int  // first plain '=' outside brackets after the first colon, -1 if none
}

// brackets is a net open-minus-close count per bracket kind.
type brackets struct {
	curly, square, round int
}

func (b brackets) add(o brackets) brackets {
	return brackets{b.curly + o.curly, b.square + o.square, b.round + o.round}
}

func (b brackets) open() bool {
	return b.curly > 0 || b.square > 0 || b.round > 0
}

func (b brackets) zero() bool {
	return b == brackets{}
}

var blockKeywords = map[string]bool{
	"if":      true,
	"for":     true,
	"finally": true,
	"try":     true,
	"else":    true,
	"elif":    true,
	"except":  true,
	"except*": true,
	"lambda":  true,
	"with":    true,
	"while":   true,
	"case":    true,
	"class":   true,
	"match":   true,
}

// isBlockKeyword reports whether term is a keyword whose statement ends
// with a colon, optionally including that colon.
func isBlockKeyword(term []byte) bool {
	return blockKeywords[string(bytes.TrimSuffix(term, []byte{':'}))]
}

func isFunctionDefinition(term []byte) bool {
	return string(term) == "def"
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c >= 0x80
}

func (s *termSymbols) reset() {
	s.colons = s.colons[:0]
	s.curlyOpen = s.curlyOpen[:0]
	s.curlyClose = s.curlyClose[:0]
	s.squareOpen = s.squareOpen[:0]
	s.squareClose = s.squareClose[:0]
	s.roundOpen = s.roundOpen[:0]
	s.roundClose = s.roundClose[:0]
	s.lambda = false
	s.assign = -1
}

// scan collects the symbols of term.
func (s *termSymbols) scan(term []byte) {
	s.reset()

	var (
		inComment, inString, long, escaped bool
		quote                              byte
		depth                              brackets
	)
	n := len(term)
	for i := 0; i < n; i++ {
		c := term[i]
		if inComment {
			if c == '\n' || c == '\r' {
				inComment = false
			}
			continue
		}
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c != quote:
			case !long:
				inString = false
			case i+2 < n && term[i+1] == c && term[i+2] == c:
				inString = false
				i += 2
			}
			continue
		}

		switch c {
		case '#':
			inComment = true
		case '\'', '"':
			quote = c
			if i+2 < n && term[i+1] == c && term[i+2] == c {
				inString, long = true, true
				i += 2
			} else if i+1 < n && term[i+1] == c {
				i++
			} else {
				inString, long = true, false
			}
		case ':':
			if depth.open() || (i+1 < n && term[i+1] == '=') {
				continue
			}
			s.colons = append(s.colons, i)
		case '{':
			depth.curly++
			s.curlyOpen = append(s.curlyOpen, i)
		case '}':
			depth.curly--
			s.curlyClose = append(s.curlyClose, i)
		case '[':
			depth.square++
			s.squareOpen = append(s.squareOpen, i)
		case ']':
			depth.square--
			s.squareClose = append(s.squareClose, i)
		case '(':
			depth.round++
			s.roundOpen = append(s.roundOpen, i)
		case ')':
			depth.round--
			s.roundClose = append(s.roundClose, i)
		case '=':
			if s.assign >= 0 || len(s.colons) == 0 || depth.open() {
				continue
			}
			if isAssignment(term, i) {
				s.assign = i
			}
		}
	}

	if !inComment && !inString {
		s.lambda = hasLambdaSuffix(term)
	}
}

// isAssignment reports whether the '=' at term[i] is a plain assignment
// and not part of a comparison, an augmented assignment or a walrus.
func isAssignment(term []byte, i int) bool {
	if i+1 < len(term) && term[i+1] == '=' {
		return false
	}
	if i > 0 {
		switch term[i-1] {
		case ':', '=', '!', '<', '>', '+', '-', '*', '/', '%', '&', '|', '^', '@':
			return false
		}
	}
	return true
}

// hasLambdaSuffix reports whether term ends with a lambda keyword that
// follows some other token, as in "key=lambda" or "(lambda:".
func hasLambdaSuffix(term []byte) bool {
	t := bytes.TrimSuffix(term, []byte{':'})
	if !bytes.HasSuffix(t, []byte("lambda")) {
		return false
	}
	i := len(t) - len("lambda")
	return i > 0 && !isIdentByte(t[i-1])
}

// delta returns the net bracket count of the symbols in [from, to).
func (s *termSymbols) delta(from, to int) brackets {
	return brackets{
		curly:  countIn(s.curlyOpen, from, to) - countIn(s.curlyClose, from, to),
		square: countIn(s.squareOpen, from, to) - countIn(s.squareClose, from, to),
		round:  countIn(s.roundOpen, from, to) - countIn(s.roundClose, from, to),
	}
}

func countIn(indexes []int, from, to int) int {
	n := 0
	for _, i := range indexes {
		if i >= from && i < to {
			n++
		}
	}
	return n
}
