package arg

import (
	"fmt"
	"strings"
)

// ParseError aggregates every unrecognized token from one command line, so
// the caller gets one message enumerating all of them rather than failing
// on the first.
type ParseError struct {
	Unknown []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unknown command-line argument(s): %s", strings.Join(e.Unknown, ", "))
}

// CycleError reports a response-file expansion cycle, naming the chain of
// files that closed the loop.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("response-file cycle detected: %s", strings.Join(e.Chain, " -> "))
}

// TooManyError reports a parameter expected to be singular (PCH marker,
// /Fo, /T) appearing more than once.
type TooManyError struct {
	What string
}

func (e *TooManyError) Error() string {
	return fmt.Sprintf("expected at most one %s, found several", e.What)
}

// MissingSourceError reports a command line with no source input at all.
type MissingSourceError struct{}

func (e *MissingSourceError) Error() string {
	return "no source input found on command line"
}

// MissingValueError reports a flag expecting a following token (e.g. /D,
// /I as the last argv element) with nothing left to consume.
type MissingValueError struct {
	Flag string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("flag %q expects a value but none was given", e.Flag)
}
