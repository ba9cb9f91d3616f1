// sanitize.go: cleanup pass for malformed MODS documents
package importer

// sanitizeJSON makes a MODS document parseable by a standard JSON parser.
// Documents from the upstream API occasionally embed raw control characters
// inside quoted string literals, which strict parsers reject. Inside string
// literals, tab/CR/LF are re-escaped and all other control characters are
// dropped; outside literals, whitespace control characters are legal JSON
// and left alone.
func sanitizeJSON(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	escaped := false

	for _, b := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
				out = append(out, b)
				continue
			case b == '\\':
				escaped = true
				out = append(out, b)
				continue
			case b == '"':
				inString = false
				out = append(out, b)
				continue
			case b == '\t':
				out = append(out, '\\', 't')
				continue
			case b == '\r':
				out = append(out, '\\', 'r')
				continue
			case b == '\n':
				out = append(out, '\\', 'n')
				continue
			case b < 0x20:
				// Raw control character with no escape form worth keeping.
				continue
			}
			out = append(out, b)
			continue
		}

		if b == '"' {
			inString = true
		}
		out = append(out, b)
	}
	return out
}
