package router

// Built-in constraint keywords.
const (
	ConstraintInt     = "int"
	ConstraintInteger = "integer"
	ConstraintAlpha   = "alpha"
	ConstraintAlnum   = "alnum"
	ConstraintSlug    = "slug"
	ConstraintUUID    = "uuid"
)

// Constraint restricts the values a path parameter may bind to. It is either
// a built-in keyword or a caller-supplied predicate.
type Constraint struct {
	keyword   string
	predicate func(string) bool
}

// Keyword returns a constraint evaluated by a built-in rule.
// Unknown keywords accept every value.
func Keyword(name string) Constraint {
	return Constraint{keyword: name}
}

// Predicate returns a constraint evaluated by fn on the raw parameter value.
func Predicate(fn func(string) bool) Constraint {
	return Constraint{predicate: fn}
}

// IsZero reports whether the constraint is unset.
func (c Constraint) IsZero() bool {
	return c.keyword == "" && c.predicate == nil
}

// IsPredicate reports whether the constraint wraps a user predicate.
func (c Constraint) IsPredicate() bool {
	return c.predicate != nil
}

func (c Constraint) String() string {
	switch {
	case c.predicate != nil:
		return "predicate"
	case c.keyword != "":
		return c.keyword
	default:
		return "none"
	}
}

// Validate checks value against c. An unset constraint accepts everything.
func Validate(value string, c Constraint) bool {
	if c.predicate != nil {
		return c.predicate(value)
	}
	return validateKeyword(value, c.keyword)
}

func validateKeyword(value, keyword string) bool {
	switch keyword {
	case ConstraintInt, ConstraintInteger:
		return value != "" && allBytes(value, isASCIIDigit)
	case ConstraintAlpha:
		return allBytes(value, isASCIILetter)
	case ConstraintAlnum:
		return allBytes(value, isASCIIAlnum)
	case ConstraintSlug:
		return value != "" && allBytes(value, isSlugByte)
	case ConstraintUUID:
		return isUUID(value)
	default:
		// Unrecognized keywords are permissive.
		return true
	}
}

func allBytes(s string, ok func(byte) bool) bool {
	for i := 0; i < len(s); i++ {
		if !ok(s[i]) {
			return false
		}
	}
	return true
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch i {
		case 8, 13, 18, 23:
			if s[i] != '-' {
				return false
			}
		default:
			if !isHexDigit(s[i]) {
				return false
			}
		}
	}
	return true
}

func isASCIIDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isASCIILetter(c byte) bool { return (c|0x20) >= 'a' && (c|0x20) <= 'z' }
func isASCIIAlnum(c byte) bool  { return isASCIIDigit(c) || isASCIILetter(c) }
func isSlugByte(c byte) bool    { return (c >= 'a' && c <= 'z') || isASCIIDigit(c) || c == '-' }

func isHexDigit(c byte) bool {
	return isASCIIDigit(c) || ((c|0x20) >= 'a' && (c|0x20) <= 'f')
}
