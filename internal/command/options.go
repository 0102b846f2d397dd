package command

import (
	"slices"
	"strconv"
	"strings"
)

// Options holds long-form options parsed from a command line. Values are
// either a string (for "--key value") or the bool true (for a bare flag).
type Options map[string]any

// ParseOptions splits argument tokens into options and positional tokens.
//
// A token starting with "--" names an option. It consumes the next token as
// its value unless that token is itself an option (or there is none), in
// which case the option is a boolean flag. A bare "--" ends option parsing.
// Positional order is preserved and repeated keys keep the last value.
func ParseOptions(tokens []string) (Options, []string) {
	opts := Options{}
	positional := make([]string, 0, len(tokens))

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if tok == "--" {
			positional = append(positional, tokens[i+1:]...)
			break
		}

		if !isOption(tok) {
			positional = append(positional, tok)
			continue
		}

		key := strings.TrimPrefix(tok, "--")
		if i+1 < len(tokens) && !isOption(tokens[i+1]) && tokens[i+1] != "--" {
			opts[key] = tokens[i+1]
			i++
			continue
		}
		opts[key] = true
	}

	return opts, positional
}

func isOption(tok string) bool {
	return len(tok) > 2 && strings.HasPrefix(tok, "--")
}

// Has reports whether key was given.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// String returns the string value of key, or def when the key is absent or
// was given as a bare flag.
func (o Options) String(key, def string) string {
	if s, ok := o[key].(string); ok {
		return s
	}
	return def
}

// Bool interprets key as a boolean. A bare flag is true; a string value is
// parsed with strconv.ParseBool and falls back to def when unparsable.
func (o Options) Bool(key string, def bool) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Int parses key as an integer, returning def on absence or parse failure.
func (o Options) Int(key string, def int) int {
	if s, ok := o[key].(string); ok {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

// Args renders the options back into "--key value" tokens in sorted key
// order. Boolean flags are rendered without a value.
func (o Options) Args() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]string, 0, len(o)*2)
	for _, k := range keys {
		out = append(out, "--"+k)
		if s, ok := o[k].(string); ok {
			out = append(out, s)
		}
	}
	return out
}
