package catalog

import "strings"

// OptionSeparator splits nested option names (ex: "logging.name" is the
// "name" option inside the "logging" group).
const OptionSeparator = "."

// Option returns the option value at the given dotted path, or def when the
// path does not resolve. Intermediate path elements must point at objects;
// anything else resolves to def.
func (c *Catalog) Option(path string, def any) any {
	if path == "" {
		return c.options
	}

	var (
		curr any = c.options
		ok   bool
	)

	for _, step := range strings.Split(path, OptionSeparator) {
		node, isMap := curr.(map[string]any)
		if !isMap {
			return def
		}

		if curr, ok = node[step]; !ok {
			return def
		}
	}

	return curr
}

// OptionString is Option narrowed to string values; non-string values
// resolve to def.
func (c *Catalog) OptionString(path, def string) string {
	if v, ok := c.Option(path, def).(string); ok {
		return v
	}

	return def
}

// OptionStrings returns a string list option. A scalar string becomes a
// single-element list; anything else resolves to def.
func (c *Catalog) OptionStrings(path string, def []string) []string {
	switch v := c.Option(path, nil).(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))

		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return def
			}

			out = append(out, s)
		}

		return out
	default:
		return def
	}
}
