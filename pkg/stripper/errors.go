package stripper

import "strings"

// ErrorMask is a set of independent error kinds accumulated while
// processing one or more files. The zero value means success.
type ErrorMask uint32

const (
	ErrLineBufferOverflow ErrorMask = 1 << iota
	ErrFunctionParse
	ErrFunctionNameParse
	ErrFunctionArgumentParse
	ErrFunctionArgumentTypeHintParse
	ErrFunctionReturnTypeHintParse
	ErrUnexpectedEOF
	ErrTooMuchColonSymbols
	ErrTooMuchClosingCurlyBrackets
	ErrTooMuchClosingSquareBrackets
	ErrTooMuchClosingRoundBrackets
	ErrTooFewClosingSquareBrackets
	ErrTooFewClosingRoundBrackets
	ErrStringNotClosed
	ErrSourceFileOpen
	ErrSourceFileIO
	ErrTempFileOpen
	ErrTempFileDelete
	ErrOverwrite
	ErrSingleFileProcess // only set by batch processing
	ErrMemoryAllocation
	ErrOutputSyntax // rewritten output failed verification
	ErrTooFewClosingCurlyBrackets
)

// NoErrors is the zero mask.
const NoErrors ErrorMask = 0

var errorMessages = []struct {
	mask ErrorMask
	name string
	text string
}{
	{ErrLineBufferOverflow, "line_buffer_overflow", "Line buffer overflowed (too long term)"},
	{ErrFunctionParse, "function_parse_error", "Could not parse Python function"},
	{ErrFunctionNameParse, "function_name_parse_error", "Could not parse Python function name"},
	{ErrFunctionArgumentParse, "function_argument_parse_error", "Could not parse Python function argument name"},
	{ErrFunctionArgumentTypeHintParse, "function_argument_type_hint_parse_error", "Could not parse Python function argument type hint"},
	{ErrFunctionReturnTypeHintParse, "function_return_type_hint_parse_error", "Could not parse Python function return type hint"},
	{ErrUnexpectedEOF, "unexpected_eof", "Unexpected end of stream (end of file)"},
	{ErrTooMuchColonSymbols, "too_much_colon_symbols", "Too many colon symbols ':'"},
	{ErrTooMuchClosingCurlyBrackets, "too_much_closing_curly_brackets", "Too many closing curly brackets '}'"},
	{ErrTooMuchClosingSquareBrackets, "too_much_closing_square_brackets", "Too many closing square brackets ']'"},
	{ErrTooMuchClosingRoundBrackets, "too_much_closing_round_brackets", "Too many closing round brackets ')'"},
	{ErrTooFewClosingSquareBrackets, "too_few_closing_square_brackets", "Too few closing square brackets ']'"},
	{ErrTooFewClosingRoundBrackets, "too_few_closing_round_brackets", "Too few closing round brackets ')'"},
	{ErrStringNotClosed, "string_not_closed_error", "Python string was not closed"},
	{ErrSourceFileOpen, "src_file_open_error", "An error occurred while opening source '.py' file"},
	{ErrSourceFileIO, "src_file_io_error", "An error occurred while reading source '.py' file"},
	{ErrTempFileOpen, "tmp_file_open_error", "An error occurred while opening temporary file"},
	{ErrTempFileDelete, "tmp_file_delete_error", "An error occurred while deleting temporary file"},
	{ErrOverwrite, "overwrite_error", "An error occurred while overwriting source '.py' file"},
	{ErrSingleFileProcess, "single_file_process_error", "An error occurred while processing a single file (multifile mode)"},
	{ErrMemoryAllocation, "memory_allocating_error", "An error occurred while allocating the preprocessor's buffers"},
	{ErrOutputSyntax, "output_syntax_error", "Rewritten file is not valid Python"},
	{ErrTooFewClosingCurlyBrackets, "too_few_closing_curly_brackets", "Too few closing curly brackets '}'"},
}

// Has reports whether every bit of kind is set in m.
func (m ErrorMask) Has(kind ErrorMask) bool {
	return kind != 0 && m&kind == kind
}

// OK reports whether no error bit is set.
func (m ErrorMask) OK() bool {
	return m == NoErrors
}

// String returns the names of the set bits joined by '|'.
func (m ErrorMask) String() string {
	if m == NoErrors {
		return "no_errors"
	}
	var names []string
	for _, e := range errorMessages {
		if m&e.mask != 0 {
			names = append(names, e.name)
		}
	}
	return strings.Join(names, "|")
}

// Report renders a human-readable description, one line per set bit.
func (m ErrorMask) Report() string {
	var sb strings.Builder
	sb.WriteString("Errors:\n")
	for _, e := range errorMessages {
		if m&e.mask != 0 {
			sb.WriteString(e.text)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
