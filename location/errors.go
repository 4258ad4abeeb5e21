package location

import "errors"

// Sentinel errors for programmatic error handling.
//
// These errors enable callers to distinguish between different failure modes
// using errors.Is(). Error messages may include additional context, but the
// sentinel error is always the root cause and can be matched with errors.Is().

// ErrAbsoluteJoinElement is returned when CanonicalPath.Join receives an
// element that looks like an absolute path (Unix "/path", Windows "C:/path",
// or UNC "//server").
//
// Passing absolute paths to Join is almost always a caller bug. Use New for
// absolute paths instead.
var ErrAbsoluteJoinElement = errors.New("location: join element is absolute")
