package location

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalPath represents a canonicalized file system path.
//
// A valid CanonicalPath is always:
//   - Absolute (not relative)
//   - Clean (no . or .. segments, no redundant slashes)
//   - NFC-normalized (Unicode Normalization Form C)
//   - Forward-slash normalized (uses "/" on all platforms)
//   - Symlink-resolved (best-effort: resolved when path exists at canonicalization time)
//
// The "best-effort symlink resolution" invariant reflects reality: New cannot
// resolve symlinks for paths that don't exist yet. Code that receives a
// CanonicalPath should not assume symlinks have been resolved. However, the
// Clean invariant is always guaranteed.
//
// CanonicalPath is a value type with an unexported field and is the one type
// used as a map key for files. Two paths compare equal iff they denote the
// same file. Always pass by value. The zero value means "no path"; use
// IsZero() to check.
type CanonicalPath struct {
	path string
}

// New canonicalizes the input path.
//
// Canonicalization includes:
//   - Converting to absolute path (via filepath.Abs, which calls filepath.Clean)
//   - Resolving symlinks (if the path exists)
//   - Applying NFC Unicode normalization
//   - Normalizing to forward slashes
//
// The constructor is total: inputs that cannot be canonicalized (empty
// string, UNC paths, filesystem errors during symlink resolution) yield the
// zero CanonicalPath rather than an error. Callers that need to distinguish
// bad input check IsZero().
func New(p string) CanonicalPath {
	if p == "" {
		return CanonicalPath{}
	}

	// Reject UNC input before filepath.Abs: on Unix, Clean collapses the
	// leading "//" to "/", so the check below would never see it.
	if len(p) >= 2 && (p[0] == '/' || p[0] == '\\') && (p[1] == '/' || p[1] == '\\') {
		return CanonicalPath{}
	}

	// Get absolute path (this also cleans . and .. segments)
	absPath, err := filepath.Abs(p)
	if err != nil {
		return CanonicalPath{}
	}

	// Attempt symlink resolution
	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		// Path doesn't exist (supports files not yet on disk), or resolution
		// failed for another reason. Fall back to the syntactically
		// normalized form either way; a path we cannot stat is still a
		// usable identity for map keys and URI conversion.
		resolved = absPath
	}

	// Apply NFC normalization
	normalized := norm.NFC.String(resolved)

	// Convert to forward slashes for cross-platform stability.
	// filepath.ToSlash only converts the native separator, which on Unix is
	// already '/'. We also need to normalize any literal backslashes that may
	// appear in path names (rare but possible on Unix) to maintain the
	// forward-slash invariant consistently.
	canonical := filepath.ToSlash(normalized)
	canonical = strings.ReplaceAll(canonical, "\\", "/")

	// Reject UNC paths - path.Clean would corrupt // to / causing identity
	// collisions. Example: //server/share and /server/share would both
	// become /server/share.
	if len(canonical) >= 2 && canonical[0] == '/' && canonical[1] == '/' {
		return CanonicalPath{}
	}

	return CanonicalPath{path: canonical}
}

// FromURI canonicalizes the path portion of a file:// URI.
//
// The URI is parsed, percent-decoded, and its path converted the same way New
// converts a raw path. Like New, FromURI is total: malformed URIs and
// non-file schemes yield the zero CanonicalPath.
func FromURI(uri string) CanonicalPath {
	u, err := url.Parse(uri)
	if err != nil {
		return CanonicalPath{}
	}
	if u.Scheme != "file" {
		return CanonicalPath{}
	}

	p := u.Path
	if p == "" && u.Opaque != "" {
		// Some clients produce file:c%3A/... without the authority slashes;
		// url.Parse leaves that form in Opaque.
		if unescaped, err := url.PathUnescape(u.Opaque); err == nil {
			p = unescaped
		}
	}
	if p == "" {
		return CanonicalPath{}
	}

	// Windows: /C:/foo → C:/foo
	if len(p) >= 3 && p[0] == '/' && isLetter(p[1]) && p[2] == ':' {
		p = p[1:]
	}

	return New(filepath.FromSlash(p))
}

// URI returns the file:// URI form of the path, percent-encoding characters
// outside the unreserved ASCII set. FromURI(p.URI()) == p for every path
// that exists on the filesystem. The zero value yields an empty string.
func (c CanonicalPath) URI() string {
	if c.IsZero() {
		return ""
	}

	p := c.path

	// Windows: C:/path → /C:/path (leading slash for URI form)
	if len(p) >= 2 && isLetter(p[0]) && p[1] == ':' {
		p = "/" + p
	}

	u := url.URL{
		Scheme: "file",
		Path:   p,
	}
	return u.String()
}

// String returns the canonical path string.
// This is the only way to extract the path value.
func (c CanonicalPath) String() string {
	return c.path
}

// OSPath returns the path in the platform's native separator convention,
// suitable for os and filepath calls.
func (c CanonicalPath) OSPath() string {
	return filepath.FromSlash(c.path)
}

// IsZero reports whether this is a zero-value CanonicalPath (empty path).
func (c CanonicalPath) IsZero() bool {
	return c.path == ""
}

// Base returns the last element of the path (the file name).
// For the zero value, returns an empty string.
func (c CanonicalPath) Base() string {
	if c.IsZero() {
		return ""
	}
	return path.Base(c.path)
}

// Ext returns the file name extension, including the leading dot.
func (c CanonicalPath) Ext() string {
	if c.IsZero() {
		return ""
	}
	return path.Ext(c.path)
}

// Dir returns the directory portion as a CanonicalPath.
// The result maintains all CanonicalPath invariants (absolute, clean, NFC,
// forward slashes).
//
// For the zero value, returns zero. For Windows paths at the drive root,
// returns the drive root (e.g., Dir("C:/") returns "C:/").
func (c CanonicalPath) Dir() CanonicalPath {
	if c.IsZero() {
		return CanonicalPath{}
	}
	cleaned := fixWindowsClean(c.path)
	dir := path.Dir(cleaned)
	dir = fixWindowsPath(cleaned, dir)
	normalized := norm.NFC.String(dir)
	return CanonicalPath{path: normalized}
}

// Join appends path elements and returns a new CanonicalPath.
// The joined path is re-canonicalized lexically to handle ".." and "."
// segments that may be introduced by the elements.
//
// IMPORTANT: Join performs purely lexical joining without symlink resolution,
// even if the joined path exists on the filesystem. If the result may contain
// symlinks that need resolution, use New(result.String()) afterward.
//
// Backslashes in elements are normalized to forward slashes to maintain
// the forward-slash invariant across all platforms.
//
// Returns [ErrAbsoluteJoinElement] if any element looks like an absolute path
// (starts with "/" or contains a Windows volume like "C:/"). Passing absolute
// paths to Join is almost always a caller bug—use New instead.
func (c CanonicalPath) Join(elem ...string) (CanonicalPath, error) {
	if c.IsZero() {
		return CanonicalPath{}, nil
	}

	joined := c.path
	for _, e := range elem {
		if looksLikeAbsoluteElement(e) {
			return CanonicalPath{}, ErrAbsoluteJoinElement
		}
		e = strings.ReplaceAll(e, "\\", "/")
		joined = joined + "/" + e
	}

	cleaned := fixWindowsClean(joined)
	normalized := norm.NFC.String(cleaned)

	return CanonicalPath{path: normalized}, nil
}

// IsSubPathOf reports whether c is lexically contained in other, component
// wise. A path is a sub-path of itself. The zero value is a sub-path of
// nothing and contains nothing.
func (c CanonicalPath) IsSubPathOf(other CanonicalPath) bool {
	if c.IsZero() || other.IsZero() {
		return false
	}
	if c.path == other.path {
		return true
	}
	prefix := other.path
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(c.path, prefix)
}

// Exists reports whether the path currently refers to an existing file or
// directory. Purely advisory; the identity of the path does not depend on it.
func (c CanonicalPath) Exists() bool {
	if c.IsZero() {
		return false
	}
	_, err := os.Stat(c.OSPath())
	return err == nil
}

// looksLikeAbsoluteElement checks if a path element looks like an absolute path.
// Used by Join to reject elements that would produce nonsensical paths.
//
// Examples of absolute elements:
//   - "/etc/passwd" (Unix absolute)
//   - "C:/Windows" or "C:\Windows" (Windows volume)
//   - "//server/share" or "\\server\share" (UNC)
func looksLikeAbsoluteElement(e string) bool {
	if len(e) == 0 {
		return false
	}
	if e[0] == '/' {
		return true
	}
	if len(e) >= 2 && e[0] == '\\' && e[1] == '\\' {
		return true
	}
	if len(e) >= 3 && isLetter(e[0]) && e[1] == ':' && (e[2] == '/' || e[2] == '\\') {
		return true
	}
	return false
}

// isLetter reports whether c is an ASCII letter.
func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// fixWindowsClean applies path.Clean and fixes Windows drive-root edge cases.
// For Windows paths (C:/...), this ensures the result is always absolute.
//
// Handles two cases:
//   - Bare drive letter: "C:" -> "C:/"
//   - Root escape: path.Clean("C:/..") = "." -> "C:/"
func fixWindowsClean(p string) string {
	cleaned := path.Clean(p)
	return fixWindowsPath(p, cleaned)
}

// fixWindowsPath corrects Windows drive-root issues after path.Clean or
// path.Dir. The input parameter is needed to recover volume information if
// path.Clean/Dir escapes the root entirely (e.g., path.Clean("C:/..") = ".").
//
// This ensures Windows paths maintain the "always absolute" invariant,
// matching Unix semantics where path.Clean("/..") = "/" (root is the ceiling).
func fixWindowsPath(input, output string) string {
	if len(input) < 3 || !isLetter(input[0]) || input[1] != ':' || input[2] != '/' {
		return output // Not a Windows path, no fixup needed
	}

	drive := input[0]

	// Case 1: Bare drive letter "C:" -> "C:/"
	if len(output) == 2 && output[0] == drive && output[1] == ':' {
		return output + "/"
	}

	// Case 2: Completely escaped the volume (e.g., "." or relative path).
	// Clamp to volume root (matches Unix behavior: path.Clean("/..") = "/")
	if len(output) < 3 || output[0] != drive || output[1] != ':' || output[2] != '/' {
		return string(drive) + ":/"
	}

	return output
}
