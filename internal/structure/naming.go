package structure

import (
	"regexp"
	"strings"
	"unicode"
)

var conventionPatterns = map[Convention]*regexp.Regexp{
	KebabCase:  regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`),
	SnakeCase:  regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`),
	CamelCase:  regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`),
	PascalCase: regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`),
	UpperCase:  regexp.MustCompile(`^[A-Z0-9]+(_[A-Z0-9]+)*$`),
}

// Matches reports whether name's stem follows convention c.
func Matches(name string, c Convention) bool {
	re, ok := conventionPatterns[c]
	if !ok {
		return true
	}
	stem, _ := splitExt(name)
	return re.MatchString(stem)
}

// Suggest rewrites name's stem into convention c, keeping the extension.
// e.g. ("MyAgent File.md", KebabCase) -> "my-agent-file.md"
func Suggest(name string, c Convention) string {
	stem, ext := splitExt(name)
	words := splitWords(stem)
	if len(words) == 0 {
		return name
	}

	var out string
	switch c {
	case KebabCase:
		out = strings.ToLower(strings.Join(words, "-"))
	case SnakeCase:
		out = strings.ToLower(strings.Join(words, "_"))
	case UpperCase:
		out = strings.ToUpper(strings.Join(words, "_"))
	case CamelCase:
		out = strings.ToLower(words[0]) + titleWords(words[1:])
	case PascalCase:
		out = titleWords(words)
	default:
		return name
	}
	return out + ext
}

// splitExt splits at the first dot that is not a leading dot.
// "agent.config.yaml" -> ("agent", ".config.yaml"); ".env" -> (".env", "").
func splitExt(name string) (string, string) {
	start := 0
	if strings.HasPrefix(name, ".") {
		start = 1
	}
	if i := strings.IndexByte(name[start:], '.'); i >= 0 {
		return name[:start+i], name[start+i:]
	}
	return name, ""
}

// splitWords breaks an identifier on separators and case boundaries.
// "HTTPServer_config-v2" -> ["HTTP", "Server", "config", "v2"]
func splitWords(s string) []string {
	runes := []rune(s)
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || r == ' ' || r == '.':
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

func titleWords(words []string) string {
	var b strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}
