// Package stripper removes type hints from Python source code.
//
// The engine is a single pass byte scanner. It does not build a syntax
// tree: it reconstructs just enough lexical context (strings, comments,
// bracket nesting and the meaning of each ':') to find variable and
// parameter annotations and function return annotations, and copies
// everything else through unchanged.
package stripper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// DefaultMaxTermSize bounds the working buffers.
const DefaultMaxTermSize = 8192

// maxTermLimit is the largest buffer size the engine agrees to allocate.
const maxTermLimit = 1 << 26

// IgnoreSet holds the names of functions whose hints are kept.
type IgnoreSet map[string]struct{}

// NewIgnoreSet returns a set holding names.
func NewIgnoreSet(names ...string) IgnoreSet {
	set := make(IgnoreSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Contains reports whether name is in the set. Matching is exact and
// case sensitive.
func (s IgnoreSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the sorted members of the set.
func (s IgnoreSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options configures a Stripper.
type Options struct {
	Ignored     IgnoreSet
	Flags       Flags
	MaxTermSize int    // rounded up to a power of two; 0 means DefaultMaxTermSize
	TempDir     string // directory for tmp_ files; "" means the working directory
	Logger      *slog.Logger

	// Check, when set, is run on the rewritten temporary file before the
	// source is overwritten. A non-nil error sets ErrOutputSyntax.
	Check func(path string) error
}

// Stripper holds the immutable configuration shared by every file it
// processes. It is safe for concurrent use.
type Stripper struct {
	ignored     IgnoreSet
	flags       Flags
	maxTermSize int
	tempDir     string
	logger      *slog.Logger
	check       func(path string) error
}

// New creates a Stripper from opts.
func New(opts Options) *Stripper {
	size := opts.MaxTermSize
	if size <= 0 {
		size = DefaultMaxTermSize
	}
	p := 1
	for p < size {
		p <<= 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ignored := opts.Ignored
	if ignored == nil {
		ignored = IgnoreSet{}
	}
	return &Stripper{
		ignored:     ignored,
		flags:       opts.Flags,
		maxTermSize: p,
		tempDir:     opts.TempDir,
		logger:      logger,
		check:       opts.Check,
	}
}

// MaxTermSize returns the effective buffer bound.
func (s *Stripper) MaxTermSize() int {
	return s.maxTermSize
}

// Result describes the processing of one stream.
type Result struct {
	Errors    ErrorMask
	Lines     int      // line number reached at the end of the input
	Functions []string // names of the functions defined, in order
}

// errStop aborts the processing of the current stream.
var errStop = errors.New("stop")

// engine holds the state of one Strip call.
type engine struct {
	*Stripper
	sc *scanner
	w  *bufio.Writer

	buf      []byte // current term
	fallback []byte // bytes read ahead while looking for the end of a hint
	syms     termSymbols

	depth     brackets // aggregate nesting before the current term
	pending   int      // block keywords still waiting for their colon
	continued bool     // the previous delimiter was a line continuation
	line      int
	mask      ErrorMask
	functions []string
}

// Strip rewrites the Python source read from r into w.
func (s *Stripper) Strip(r io.Reader, w io.Writer) Result {
	if s.maxTermSize > maxTermLimit {
		s.logf(slog.LevelWarn, "term buffer size %d exceeds limit %d", s.maxTermSize, maxTermLimit)
		return Result{Errors: ErrMemoryAllocation}
	}
	e := &engine{
		Stripper: s,
		sc:       newScanner(r),
		w:        bufio.NewWriter(w),
		buf:      make([]byte, 0, s.maxTermSize),
		fallback: make([]byte, 0, s.maxTermSize),
		line:     1,
	}
	e.syms.reset()

	err := e.run()
	if err == nil {
		e.flush()
	}
	if e.sc.err != nil {
		e.mask |= ErrSourceFileIO
		s.logf(slog.LevelWarn, "read error at line %d: %v", e.line, e.sc.err)
	}
	if werr := e.w.Flush(); werr != nil {
		e.mask |= ErrTempFileOpen
		s.logf(slog.LevelWarn, "write error: %v", werr)
	}
	return Result{
		Errors:    e.mask,
		Lines:     e.line + e.sc.takeNewlines(),
		Functions: e.functions,
	}
}

// run is the main loop: it accumulates terms and dispatches each one
// when a delimiter is reached outside strings and comments.
func (e *engine) run() error {
	for {
		c, ok := e.sc.read()
		if !ok {
			return nil
		}
		lit, err := e.sc.literal(c, e.push)
		if err != nil {
			return err
		}
		if lit {
			continue
		}
		if !isDelimiter(c) {
			if err := e.push(c); err != nil {
				return err
			}
			continue
		}
		if err := e.endTerm(c); err != nil {
			return err
		}
	}
}

// flush writes what is left at the end of the input and checks that
// every literal and bracket was closed.
func (e *engine) flush() {
	if e.sc.inString {
		e.mask |= ErrUnexpectedEOF | ErrFunctionReturnTypeHintParse
		e.logf(slog.LevelWarn, "got EOF while reading string at line %d, string was not closed", e.line)
		return
	}
	if len(e.buf) > 0 {
		if err := e.endTerm(0); err != nil {
			return
		}
	}
	if e.depth.curly > 0 {
		e.mask |= ErrTooFewClosingCurlyBrackets
		e.logf(slog.LevelWarn, "%d curly brackets not closed at EOF", e.depth.curly)
	}
	if e.depth.square > 0 {
		e.mask |= ErrTooFewClosingSquareBrackets
		e.logf(slog.LevelWarn, "%d square brackets not closed at EOF", e.depth.square)
	}
	if e.depth.round > 0 {
		e.mask |= ErrTooFewClosingRoundBrackets
		e.logf(slog.LevelWarn, "%d round brackets not closed at EOF", e.depth.round)
	}
}

// endTerm classifies the buffered term and writes it, rewritten if it
// declares a type hint, followed by delim. A zero delim means EOF.
func (e *engine) endTerm(delim byte) error {
	if isFunctionDefinition(e.buf) {
		return e.rewriteFunction(delim)
	}

	syms := &e.syms
	syms.scan(e.buf)
	if len(syms.colons) > 1 {
		err := e.fail(ErrTooMuchColonSymbols,
			"more than one ':' symbol (not walrus operator ':=') in one term is not supported, term '%s' at line %d",
			e.buf, e.line)
		if err != nil {
			return err
		}
	}
	whole := syms.delta(0, len(e.buf))

	if isBlockKeyword(e.buf) || syms.lambda {
		if len(syms.colons) == 0 {
			e.pending++
		}
		return e.writeTerm(delim, whole)
	}
	if len(syms.colons) == 0 {
		return e.writeTerm(delim, whole)
	}

	colon := syms.colons[0]
	before := syms.delta(0, colon)
	switch {
	case e.depth.add(before).open():
		// Dict key, slice or lambda inside brackets.
		return e.writeTerm(delim, whole)
	case e.pending > 0:
		e.pending--
		return e.writeTerm(delim, whole)
	case syms.assign > colon:
		return e.spliceHint(colon, syms.assign, delim)
	}
	return e.stripBareHint(colon, delim)
}

// writeTerm writes the term and its delimiter unchanged.
func (e *engine) writeTerm(delim byte, delta brackets) error {
	e.w.Write(e.buf)
	if delim != 0 {
		e.w.WriteByte(delim)
	}
	return e.finishTerm(delim, delta)
}

// finishTerm updates the nesting counters after a term was written and
// clears the term buffer.
func (e *engine) finishTerm(delim byte, delta brackets) error {
	e.depth = e.depth.add(delta)
	e.trace(delta)
	term := e.buf
	e.buf = e.buf[:0]
	e.line += e.sc.takeNewlines()

	switch delim {
	case '\\':
		e.continued = true
	case '\n', ';':
		if !e.continued && e.depth.zero() {
			e.pending = 0
		}
		if delim == '\n' {
			e.continued = false
		}
	}

	if e.depth.curly < 0 {
		e.depth.curly = 0
		if err := e.fail(ErrTooMuchClosingCurlyBrackets,
			"closing bracket '}' without opened one at line %d, term '%s'", e.line, term); err != nil {
			return err
		}
	}
	if e.depth.square < 0 {
		e.depth.square = 0
		if err := e.fail(ErrTooMuchClosingSquareBrackets,
			"closing bracket ']' without opened one at line %d, term '%s'", e.line, term); err != nil {
			return err
		}
	}
	if e.depth.round < 0 {
		e.depth.round = 0
		if err := e.fail(ErrTooMuchClosingRoundBrackets,
			"closing bracket ')' without opened one at line %d, term '%s'", e.line, term); err != nil {
			return err
		}
	}
	return nil
}

// push appends c to the term buffer.
func (e *engine) push(c byte) error {
	if len(e.buf) >= e.maxTermSize {
		return e.overflow()
	}
	e.buf = append(e.buf, c)
	return nil
}

func (e *engine) pushAll(b []byte) error {
	for _, c := range b {
		if err := e.push(c); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) overflow() error {
	return e.fatal(ErrLineBufferOverflow, "max buffer size %d is reached at line %d", e.maxTermSize, e.line)
}

// fail records kind. It returns errStop unless the stripper continues
// on errors.
func (e *engine) fail(kind ErrorMask, format string, args ...any) error {
	e.mask |= kind
	e.logf(slog.LevelWarn, format, args...)
	if e.flags.Has(FlagContinueOnError) {
		return nil
	}
	return errStop
}

// fatal records kind and always stops.
func (e *engine) fatal(kind ErrorMask, format string, args ...any) error {
	e.mask |= kind
	e.logf(slog.LevelWarn, format, args...)
	return errStop
}

func (e *engine) trace(delta brackets) {
	if !e.flags.Has(FlagDebug) {
		return
	}
	e.logger.Debug("term",
		slog.Int("line", e.line),
		slog.String("term", string(e.buf)),
		slog.Int("length", len(e.buf)),
		slog.Int("pending", e.pending),
		slog.Int("curly_delta", delta.curly),
		slog.Int("square_delta", delta.square),
		slog.Int("round_delta", delta.round),
		slog.Int("curly", e.depth.curly),
		slog.Int("square", e.depth.square),
		slog.Int("round", e.depth.round),
	)
}

// logf emits a diagnostic when the verbose flag is set.
func (s *Stripper) logf(level slog.Level, format string, args ...any) {
	if !s.flags.Has(FlagVerbose) {
		return
	}
	s.logger.Log(context.Background(), level, fmt.Sprintf(format, args...))
}
