package stripper

import "strings"

// Flags controls how files are processed. Bits are independent.
type Flags uint32

const (
	FlagVerbose Flags = 1 << iota
	FlagOverwriteFile
	FlagDebug
	FlagContinueOnError // keep going after the first error (not recommended)
	FlagAllDisabled     // switch every other flag off, defaults included
)

// NoFlags is the empty flag set.
const NoFlags Flags = 0

// DefaultFlags are used when the caller does not pass any.
const DefaultFlags = FlagVerbose

// Has reports whether f contains every bit of flag.
func (f Flags) Has(flag Flags) bool {
	return flag != 0 && f&flag == flag
}

// Resolve returns the flags to run with.
func (f Flags) Resolve() Flags {
	if f.Has(FlagAllDisabled) {
		return NoFlags
	}
	return f
}

var flagNames = map[string]Flags{
	"debug":             FlagDebug | FlagVerbose,
	"overwrite":         FlagOverwriteFile,
	"verbose":           FlagVerbose,
	"continue_on_error": FlagContinueOnError,
	"all_disabled":      FlagAllDisabled,
}

// ParseFlags collects the flags named by arguments of the form -name.
// Arguments that do not start with '-' and unknown names are ignored.
func ParseFlags(args []string) Flags {
	flags := NoFlags
	for _, arg := range args {
		name, ok := strings.CutPrefix(arg, "-")
		if !ok {
			continue
		}
		flags |= flagNames[name]
	}
	return flags
}
