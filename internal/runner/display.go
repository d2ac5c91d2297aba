package runner

import (
	"strconv"
	"strings"

	"github.com/roach88/paramsrc/internal/coerce"
	"github.com/roach88/paramsrc/internal/source"
)

// DefaultNameTemplate is used when a test sets no NameTemplate.
const DefaultNameTemplate = "{displayName}[{index}] {arguments}"

// RenderName expands a display-name template for one invocation.
//
// Placeholders: {index} is the 1-based invocation index, {0}..{n} are the
// raw tuple values by position, {arguments} is every raw value joined with
// ", ", and {displayName} is the declaration's display name. Null renders as
// "null". Unknown placeholders, and positions past the tuple's end, are kept
// verbatim.
func RenderName(template, displayName string, index int, raw source.Tuple) string {
	if template == "" {
		template = DefaultNameTemplate
	}
	var buf strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			buf.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			buf.WriteString(rest)
			break
		}
		end += open
		buf.WriteString(rest[:open])
		key := rest[open+1 : end]
		if v, ok := placeholder(key, displayName, index, raw); ok {
			buf.WriteString(v)
		} else {
			buf.WriteString(rest[open : end+1])
		}
		rest = rest[end+1:]
	}
	return buf.String()
}

func placeholder(key, displayName string, index int, raw source.Tuple) (string, bool) {
	switch key {
	case "index":
		return strconv.Itoa(index), true
	case "displayName":
		return displayName, true
	case "arguments":
		parts := make([]string, len(raw))
		for i, v := range raw {
			parts[i] = coerce.Text(v)
		}
		return strings.Join(parts, ", "), true
	}
	pos, err := strconv.Atoi(key)
	if err != nil || pos < 0 || pos >= len(raw) {
		return "", false
	}
	return coerce.Text(raw[pos]), true
}
