package codegen

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

var keywords = map[string]bool{
	"abstract": true, "as": true, "base": true, "bool": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "checked": true,
	"class": true, "const": true, "continue": true, "decimal": true, "default": true,
	"delegate": true, "do": true, "double": true, "else": true, "enum": true,
	"event": true, "explicit": true, "extern": true, "false": true, "finally": true,
	"fixed": true, "float": true, "for": true, "foreach": true, "goto": true,
	"if": true, "implicit": true, "in": true, "int": true, "interface": true,
	"internal": true, "is": true, "lock": true, "long": true, "namespace": true,
	"new": true, "null": true, "object": true, "operator": true, "out": true,
	"override": true, "params": true, "private": true, "protected": true, "public": true,
	"readonly": true, "ref": true, "return": true, "sbyte": true, "sealed": true,
	"short": true, "sizeof": true, "stackalloc": true, "static": true, "string": true,
	"struct": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "uint": true, "ulong": true, "unchecked": true,
	"unsafe": true, "ushort": true, "using": true, "virtual": true, "void": true,
	"volatile": true, "while": true,
}

// IsIdentifier reports whether s is a valid, non-keyword C# identifier.
func IsIdentifier(s string) bool {
	if s == "" || keywords[s] {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r) || unicode.Is(unicode.Pc, r)):
		default:
			return false
		}
	}
	return true
}

// ValidateIdentifier returns a NotValid error when s cannot name a C# type.
func ValidateIdentifier(s string) error {
	if !IsIdentifier(s) {
		return errors.NotValidf("identifier %q", s)
	}
	return nil
}

// ValidateNamespace accepts "" or a dotted sequence of identifiers.
func ValidateNamespace(ns string) error {
	if ns == "" {
		return nil
	}
	for _, part := range strings.Split(ns, ".") {
		if !IsIdentifier(part) {
			return errors.NotValidf("namespace %q", ns)
		}
	}
	return nil
}

// Identifier turns an arbitrary name into a valid C# identifier, prefixing
// keywords with @ and replacing invalid characters with underscores.
func Identifier(name string) string {
	if keywords[name] {
		return "@" + name
	}
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
			sb.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}

// Literal renders a C# string literal.
func Literal(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case 0:
			sb.WriteString(`\0`)
		case '\u0085', '\u2028', '\u2029':
			// C# new-line characters, not allowed in a regular literal.
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\u%04x`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// StringArray renders new[] { "a", "b" }.
func StringArray(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = Literal(v)
	}
	return "new[] { " + strings.Join(parts, ", ") + " }"
}

// UnknownLiteral renders a seed or key value as a C# expression.
func UnknownLiteral(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "null", nil
	case string:
		return Literal(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10) + "L", nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10) + "u", nil
	case uint64:
		return strconv.FormatUint(v, 10) + "ul", nil
	case float32:
		return floatLiteral(float64(v), 32, "f")
	case float64:
		return floatLiteral(v, 64, "")
	case time.Time:
		u := v.UTC()
		return fmt.Sprintf("new DateTime(%d, %d, %d, %d, %d, %d, %d, DateTimeKind.Utc)",
			u.Year(), int(u.Month()), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond()/int(time.Millisecond)), nil
	case time.Duration:
		return fmt.Sprintf("new TimeSpan(%dL)", v.Nanoseconds()/100), nil
	case uuid.UUID:
		return "new Guid(" + Literal(v.String()) + ")", nil
	case []byte:
		parts := make([]string, len(v))
		for i, b := range v {
			parts[i] = strconv.Itoa(int(b))
		}
		return "new byte[] { " + strings.Join(parts, ", ") + " }", nil
	}
	return "", errors.NotSupportedf("literal of type %T", v)
}

func floatLiteral(f float64, bits int, suffix string) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errors.NotSupportedf("non-finite literal %v", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s + suffix, nil
}
