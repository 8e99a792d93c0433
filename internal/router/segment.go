package router

import "strings"

// SegmentKind distinguishes literal from parameter segments.
type SegmentKind uint8

const (
	SegmentLiteral SegmentKind = iota
	SegmentParam
)

// Segment is one '/'-delimited token of a route pattern.
// For literals Value holds the text; for parameters it holds the parameter
// name and Constraint the optional inline constraint keyword.
type Segment struct {
	Kind       SegmentKind
	Value      string
	Constraint string
}

// IsParam reports whether the segment captures a value.
func (s Segment) IsParam() bool {
	return s.Kind == SegmentParam
}

func (s Segment) String() string {
	if s.Kind == SegmentLiteral {
		return s.Value
	}
	if s.Constraint != "" {
		return "{" + s.Value + ":" + s.Constraint + "}"
	}
	return "{" + s.Value + "}"
}

// ParseSegments splits a path into its ordered segments.
//
// Leading and trailing slashes are ignored. The root path yields a single
// empty literal. A token wrapped in braces becomes a parameter; "{id:int}"
// sets the inline constraint "int". The input is expected to have passed
// pattern validation; a request path simply yields literals.
func ParseSegments(path string) []Segment {
	trimmed := trimSlashes(path)
	if trimmed == "" {
		return []Segment{{Kind: SegmentLiteral}}
	}

	segments := make([]Segment, 0, countSegments(trimmed))
	start := 0
	for i := 0; i <= len(trimmed); i++ {
		if i < len(trimmed) && trimmed[i] != '/' {
			continue
		}
		segments = append(segments, parseToken(trimmed[start:i]))
		start = i + 1
	}
	return segments
}

func parseToken(tok string) Segment {
	if len(tok) < 2 || tok[0] != '{' || tok[len(tok)-1] != '}' {
		return Segment{Kind: SegmentLiteral, Value: tok}
	}

	inner := tok[1 : len(tok)-1]
	for i := 0; i < len(inner); i++ {
		if inner[i] == ':' {
			return Segment{Kind: SegmentParam, Value: inner[:i], Constraint: inner[i+1:]}
		}
	}
	return Segment{Kind: SegmentParam, Value: inner}
}

// validatePattern checks a route pattern in one pass: non-empty, leading
// slash, balanced braces, whole-segment parameters, identifier names and no
// duplicate parameter names.
func validatePattern(pattern string) error {
	if pattern == "" {
		return patternError(pattern, "path must not be empty")
	}
	if pattern[0] != '/' {
		return patternError(pattern, "path must start with '/'")
	}

	var names []string
	inParam := false
	segStart := 1
	open, colon := -1, -1

	for i := 1; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			if inParam {
				return patternError(pattern, "unbalanced '{' at offset %d", i)
			}
			if i != segStart {
				return patternError(pattern, "parameter at offset %d must occupy an entire segment", i)
			}
			inParam, open, colon = true, i, -1

		case ':':
			if inParam {
				if colon >= 0 {
					return patternError(pattern, "unexpected ':' at offset %d", i)
				}
				colon = i
			}

		case '}':
			if !inParam {
				return patternError(pattern, "unbalanced '}' at offset %d", i)
			}
			nameEnd := i
			if colon >= 0 {
				nameEnd = colon
				if kw := pattern[colon+1 : i]; !isIdentifier(kw) {
					return patternError(pattern, "invalid constraint name %q", kw)
				}
			}
			name := pattern[open+1 : nameEnd]
			if !isIdentifier(name) {
				return patternError(pattern, "invalid parameter name %q", name)
			}
			for _, seen := range names {
				if seen == name {
					return patternError(pattern, "duplicate parameter name %q", name)
				}
			}
			names = append(names, name)
			if i+1 < len(pattern) && pattern[i+1] != '/' {
				return patternError(pattern, "parameter %q must occupy an entire segment", name)
			}
			inParam = false

		case '/':
			if inParam {
				return patternError(pattern, "unbalanced '{' at offset %d", open)
			}
			segStart = i + 1
		}
	}

	if inParam {
		return patternError(pattern, "unbalanced '{' at offset %d", open)
	}
	return nil
}

// isIdentifier reports whether s matches [A-Za-z_][A-Za-z0-9_]*.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', isASCIILetter(c):
		case isASCIIDigit(c) && i > 0:
		default:
			return false
		}
	}
	return true
}

// trimSlashes strips leading and trailing '/'. The root path becomes "".
func trimSlashes(path string) string {
	return strings.Trim(path, "/")
}

// normalizePath returns the canonical form of a path: one leading slash,
// no trailing slash, "/" for the root.
func normalizePath(path string) string {
	return "/" + trimSlashes(path)
}

// countSegments returns the number of segments of an already trimmed path.
// The root ("") counts as one empty segment.
func countSegments(trimmed string) int {
	return strings.Count(trimmed, "/") + 1
}

// nextToken returns the token of trimmed starting at offset start and the
// offset of the following token.
func nextToken(trimmed string, start int) (string, int) {
	if end := strings.IndexByte(trimmed[start:], '/'); end >= 0 {
		return trimmed[start : start+end], start + end + 1
	}
	return trimmed[start:], len(trimmed) + 1
}
