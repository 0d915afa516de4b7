package codec

import (
	"slices"
	"strings"
	"unicode"
)

var aliasers = map[string]Aliaser{
	"camel": CamelCase,
	"snake": SnakeCase,
	"kebab": KebabCase,
}

// NamedAliaser returns the built-in aliaser called name: camel, snake or
// kebab.
func NamedAliaser(name string) (Aliaser, bool) {
	a, ok := aliasers[name]
	return a, ok
}

// AliaserNames lists the built-in aliasers.
func AliaserNames() []string {
	names := make([]string, 0, len(aliasers))
	for name := range aliasers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// CamelCase turns first_name, first-name and FirstName into firstName.
func CamelCase(s string) string {
	var b strings.Builder
	for i, w := range words(s) {
		w = strings.ToLower(w)
		if i > 0 {
			r := []rune(w)
			r[0] = unicode.ToUpper(r[0])
			w = string(r)
		}
		b.WriteString(w)
	}
	return b.String()
}

// SnakeCase turns firstName and HTTPPort into first_name and http_port.
func SnakeCase(s string) string {
	return joinLower(words(s), "_")
}

// KebabCase turns firstName and HTTPPort into first-name and http-port.
func KebabCase(s string) string {
	return joinLower(words(s), "-")
}

func joinLower(ws []string, sep string) string {
	for i, w := range ws {
		ws[i] = strings.ToLower(w)
	}
	return strings.Join(ws, sep)
}

// words splits s on separators and case changes. An upper case run keeps
// its last letter for the next word when a lower case letter follows, so
// HTTPPort splits into HTTP and Port. Digits stay with the preceding word.
func words(s string) []string {
	var out []string
	r := []rune(s)
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			out = append(out, string(r[start:end]))
		}
		start = -1
	}
	for i, c := range r {
		switch {
		case c == '_' || c == '-' || c == ' ' || c == '.':
			flush(i)
			continue
		case start < 0:
			start = i
		case unicode.IsUpper(c):
			prev := r[i-1]
			nextLower := i+1 < len(r) && unicode.IsLower(r[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush(i)
				start = i
			}
		}
	}
	flush(len(r))
	return out
}
