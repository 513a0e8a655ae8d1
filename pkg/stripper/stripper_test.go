package stripper

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func strip(t *testing.T, opts Options, input string) (string, Result) {
	t.Helper()
	var out strings.Builder
	res := New(opts).Strip(strings.NewReader(input), &out)
	return out.String(), res
}

func TestVariableHints(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Hint with initializer", "x: int = 5\n", "x = 5\n"},
		{"Hint without spaces", "x:int=5\n", "x=5\n"},
		{"Hint glued to assignment", "x: int=5\n", "x=5\n"},
		{"Bare hint", "x: int\n", "x\n"},
		{"Bare hint trailing spaces", "x: int  \n", "x\n"},
		{"Bare hint at EOF", "x: int", "x"},
		{"Generic hint", "x: List[int] = []\n", "x = []\n"},
		{"Attribute target", "self.x: int = 0\n", "self.x = 0\n"},
		{"Subscript target", "d['k']: int = 1\n", "d['k'] = 1\n"},
		{"Keyword argument in hint", "x: Annotated[int, Field(default=1)] = 2\n", "x = 2\n"},
		{"Comparison in hint", "x: Literal[a == b] = c\n", "x = c\n"},
		{"String hint", "x: 'Foo' = y\n", "x = y\n"},
		{"Semicolon ends hint", "x: int; y = 1\n", "x; y = 1\n"},
		{"Comment ends hint", "x: int  # note\n", "x  # note\n"},
		{"Indented", "    x: int = 1\n", "    x = 1\n"},
		{"CRLF", "x: int\r\ny: str = 'a'\r\n", "x\r\ny = 'a'\r\n"},
		{"Multi-line hint", "y: Dict[\n  str,\n  int\n] = {}\n", "y = {}\n"},
		{"Continued hint", "x: int \\\n  = 5\n", "x \\\n  = 5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, res := strip(t, Options{}, tt.input)
			if !res.Errors.OK() {
				t.Fatalf("Unexpected errors: %s", res.Errors)
			}
			if out != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, out)
			}
		})
	}
}

func TestUnchangedSource(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty input", ""},
		{"Plain assignment", "x = 5\n"},
		{"Walrus", "if (n := 10) > 5:\n    print(n)\n"},
		{"Walrus with call", "if (n := len(x)) > 3:\n    pass\n"},
		{"Walrus without spaces", "while (line:=f.readline()):\n    pass\n"},
		{"Dict literal", "d = {'a': 1, 'b': 2}\n"},
		{"Dict literal without spaces", "d={'a':1}\n"},
		{"Nested aggregate literal", "d = {\"a\": 1, \"b\": [1, 2][0]}\n"},
		{"Multi-line dict", "d = {\n    'a': 1,\n    'b': [1, 2],\n}\n"},
		{"Slice", "y = x[1:2]\n"},
		{"Lambda", "f = lambda x: x + 1\n"},
		{"Lambda in call", "sorted(xs, key=lambda v: v[0])\n"},
		{"If block", "if a:\n    b = 1\nelse:\n    b = 2\n"},
		{"For block", "for i in range(3):\n    pass\n"},
		{"Try block", "try:\n    f()\nexcept ValueError as e:\n    pass\nfinally:\n    g()\n"},
		{"Class with bases", "class A(B, metaclass=M):\n    pass\n"},
		{"Match block", "match p:\n    case 1:\n        pass\n"},
		{"Class pattern", "match p:\n    case Point(x=1):\n        pass\n"},
		{"With block", "with open(f) as fh:\n    pass\n"},
		{"String with colon", "s = \"a: b\"\n"},
		{"String with escaped quote", "s = 'it\\'s: x'\n"},
		{"Empty strings", "a = ''\nb = \"\"\n"},
		{"Comment with colon", "a = 1  # see: this\n"},
		{"Docstring", "\"\"\"Module: doc.\"\"\"\nx = 1\n"},
		{"Triple quoted with quotes", "s = '''a ' b '' c: d'''\n"},
		{"Keyword call", "f(a=1, b=2)\n"},
		{"Semicolons", "a = 1; b = 2\n"},
		{"Continuation", "x = 1 + \\\n    2\n"},
		{"CRLF", "if a:\r\n    b = 1\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, res := strip(t, Options{}, tt.input)
			if !res.Errors.OK() {
				t.Fatalf("Unexpected errors: %s", res.Errors)
			}
			if out != tt.input {
				t.Errorf("Expected source unchanged, got %q", out)
			}
		})
	}
}

func TestBlocksAndHints(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"Class attributes",
			"class A:\n    x: int = 0\n    y: str\n",
			"class A:\n    x = 0\n    y\n",
		},
		{
			"Hint inside if",
			"if a:\n    b: int = 1\n",
			"if a:\n    b = 1\n",
		},
		{
			"Hint after one-line if",
			"if a: b = 1\nc: int = 2\n",
			"if a: b = 1\nc = 2\n",
		},
		{
			"Hint after lambda in call",
			"f(lambda: 0)\nx: int = 1\n",
			"f(lambda: 0)\nx = 1\n",
		},
		{
			"Hint after lambda argument",
			"sorted(xs, key=lambda v: v[0])\nx: int = 1\n",
			"sorted(xs, key=lambda v: v[0])\nx = 1\n",
		},
		{
			"Hint after walrus",
			"if (n := f()):\n    m: int = n\n",
			"if (n := f()):\n    m = n\n",
		},
		{
			"Keyword colon after dict",
			"for k in {1: 2}:\n    x: int = k\n",
			"for k in {1: 2}:\n    x = k\n",
		},
		{
			"Keyword colon after slice",
			"if d[a:b]:\n    x: int = 1\n",
			"if d[a:b]:\n    x = 1\n",
		},
		{
			"Keyword colon after multi-line dict",
			"for k in {\n    1: 2,\n}:\n    x: int = k\n",
			"for k in {\n    1: 2,\n}:\n    x = k\n",
		},
		{
			"Hint after dict",
			"d = {'a': 1}\nx: int = 2\n",
			"d = {'a': 1}\nx = 2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, res := strip(t, Options{}, tt.input)
			if !res.Errors.OK() {
				t.Fatalf("Unexpected errors: %s", res.Errors)
			}
			if out != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, out)
			}
		})
	}
}

func TestStripIsIdempotent(t *testing.T) {
	inputs := []string{
		"x: int = 5\ny: str\n",
		"def f(a: int, b: str = \"x\") -> bool:\n    return a\n",
		"class A:\n    x: List[int] = []\n\n    def m(self, y: int) -> None:\n        self.y: int = y\n",
		"y: Dict[\n  str,\n  int\n] = {}\n",
		"d = {'a': 1}\nf = lambda x: x\n",
	}

	for _, input := range inputs {
		first, res := strip(t, Options{}, input)
		if !res.Errors.OK() {
			t.Fatalf("Unexpected errors for %q: %s", input, res.Errors)
		}
		second, res := strip(t, Options{}, first)
		if !res.Errors.OK() {
			t.Fatalf("Unexpected errors for %q: %s", first, res.Errors)
		}
		if first != second {
			t.Errorf("Second pass changed %q into %q", first, second)
		}
	}
}

func TestStripErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected ErrorMask
	}{
		{"Too many closing round", "x = )\n", ErrTooMuchClosingRoundBrackets},
		{"Too many closing square", "x = ]\n", ErrTooMuchClosingSquareBrackets},
		{"Too many closing curly", "x = }\n", ErrTooMuchClosingCurlyBrackets},
		{"Too few closing round", "x = (1,\n", ErrTooFewClosingRoundBrackets},
		{"Too few closing square", "x = [1,\n", ErrTooFewClosingSquareBrackets},
		{"Too few closing curly", "x = {1,\n", ErrTooFewClosingCurlyBrackets},
		{"Two colons", "a:b:c\n", ErrTooMuchColonSymbols},
		{"Unclosed triple quote", "x = \"\"\"abc\n", ErrUnexpectedEOF},
		{"Unclosed hint bracket", "x: List[int", ErrUnexpectedEOF},
		{"Closing bracket in hint", "x: int)\n", ErrTooMuchClosingRoundBrackets},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, res := strip(t, Options{}, tt.input)
			if !res.Errors.Has(tt.expected) {
				t.Errorf("Expected %s, got %s", tt.expected, res.Errors)
			}
		})
	}
}

func TestUnclosedHintIsWrittenBack(t *testing.T) {
	out, res := strip(t, Options{}, "x: List[int")
	if !res.Errors.Has(ErrUnexpectedEOF) {
		t.Fatalf("Expected unexpected_eof, got %s", res.Errors)
	}
	if out != "x: List[int" {
		t.Errorf("Expected hint written back, got %q", out)
	}
}

func TestContinueOnError(t *testing.T) {
	input := "a = )\nb: int = 1\n"

	out, res := strip(t, Options{}, input)
	if !res.Errors.Has(ErrTooMuchClosingRoundBrackets) {
		t.Fatalf("Expected round bracket error, got %s", res.Errors)
	}
	if out != "a = )\n" {
		t.Errorf("Expected processing to stop after the error, got %q", out)
	}

	out, res = strip(t, Options{Flags: FlagContinueOnError}, input)
	if !res.Errors.Has(ErrTooMuchClosingRoundBrackets) {
		t.Fatalf("Expected round bracket error, got %s", res.Errors)
	}
	if out != "a = )\nb = 1\n" {
		t.Errorf("Expected processing to continue, got %q", out)
	}
}

func TestTermOverflow(t *testing.T) {
	out, res := strip(t, Options{MaxTermSize: 4}, "abcdefgh\n")
	if !res.Errors.Has(ErrLineBufferOverflow) {
		t.Errorf("Expected line_buffer_overflow, got %s", res.Errors)
	}
	if out != "" {
		t.Errorf("Expected no output, got %q", out)
	}

	// Short terms fit whatever the line length.
	input := "a = b + c + d + e\n"
	out, res = strip(t, Options{MaxTermSize: 4}, input)
	if !res.Errors.OK() {
		t.Fatalf("Unexpected errors: %s", res.Errors)
	}
	if out != input {
		t.Errorf("Expected %q, got %q", input, out)
	}
}

func TestTermBound(t *testing.T) {
	for _, size := range []int{1, 8, 64, 1024} {
		exact := strings.Repeat("a", size) + "\n"
		out, res := strip(t, Options{MaxTermSize: size}, exact)
		if !res.Errors.OK() || out != exact {
			t.Errorf("Size %d: expected a full term to fit, got %s", size, res.Errors)
		}

		_, res = strip(t, Options{MaxTermSize: size}, strings.Repeat("a", size+1))
		if !res.Errors.Has(ErrLineBufferOverflow) {
			t.Errorf("Size %d: expected line_buffer_overflow, got %s", size, res.Errors)
		}

		_, res = strip(t, Options{MaxTermSize: size}, "x: "+strings.Repeat("a", size+1)+"\n")
		if !res.Errors.Has(ErrLineBufferOverflow) {
			t.Errorf("Size %d: expected long hint to overflow, got %s", size, res.Errors)
		}
	}
}

func TestMaxTermSize(t *testing.T) {
	tests := []struct {
		size     int
		expected int
	}{
		{0, DefaultMaxTermSize},
		{-1, DefaultMaxTermSize},
		{1, 1},
		{100, 128},
		{4096, 4096},
	}

	for _, tt := range tests {
		if got := New(Options{MaxTermSize: tt.size}).MaxTermSize(); got != tt.expected {
			t.Errorf("MaxTermSize(%d): expected %d, got %d", tt.size, tt.expected, got)
		}
	}
}

func TestMemoryLimit(t *testing.T) {
	_, res := strip(t, Options{MaxTermSize: maxTermLimit + 1}, "x = 1\n")
	if res.Errors != ErrMemoryAllocation {
		t.Errorf("Expected memory_allocating_error, got %s", res.Errors)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestIOErrors(t *testing.T) {
	res := New(Options{}).Strip(failingReader{}, &strings.Builder{})
	if !res.Errors.Has(ErrSourceFileIO) {
		t.Errorf("Expected src_file_io_error, got %s", res.Errors)
	}

	res = New(Options{}).Strip(strings.NewReader("x = 1\n"), failingWriter{})
	if !res.Errors.Has(ErrTempFileOpen) {
		t.Errorf("Expected tmp_file_open_error, got %s", res.Errors)
	}
}

func TestResultLines(t *testing.T) {
	_, res := strip(t, Options{}, "a = 1\nb: int = 2\nc = \"\"\"x\ny\"\"\"\n")
	if res.Lines != 5 {
		t.Errorf("Expected line 5, got %d", res.Lines)
	}
}

func TestVerboseLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	strip(t, Options{Logger: logger}, "x = )\n")
	if buf.Len() != 0 {
		t.Errorf("Expected no output without verbose flag, got %q", buf.String())
	}

	strip(t, Options{Logger: logger, Flags: FlagVerbose}, "x = )\n")
	if !strings.Contains(buf.String(), "closing bracket ')' without opened one") {
		t.Errorf("Expected bracket warning, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "msg=term") {
		t.Errorf("Expected no trace without debug flag, got %q", buf.String())
	}

	buf.Reset()
	strip(t, Options{Logger: logger, Flags: ParseFlags([]string{"-debug"})}, "x: int = 1\n")
	if !strings.Contains(buf.String(), "msg=term") || !strings.Contains(buf.String(), "pending=") {
		t.Errorf("Expected term trace, got %q", buf.String())
	}
}

func TestIgnoreSet(t *testing.T) {
	set := NewIgnoreSet("b", "a", "b")
	if !set.Contains("a") || !set.Contains("b") {
		t.Errorf("Expected set to contain a and b")
	}
	if set.Contains("A") {
		t.Errorf("Expected matching to be case sensitive")
	}
	if names := set.Names(); strings.Join(names, ",") != "a,b" {
		t.Errorf("Expected sorted names a,b, got %v", names)
	}
}
