package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean document untouched", `{"a": "b"}`, `{"a": "b"}`},
		{"tab in string escaped", "{\"a\": \"x\ty\"}", `{"a": "x\ty"}`},
		{"newline in string escaped", "{\"a\": \"x\ny\"}", `{"a": "x\ny"}`},
		{"carriage return in string escaped", "{\"a\": \"x\ry\"}", `{"a": "x\ry"}`},
		{"other control char dropped", "{\"a\": \"x\x01y\"}", `{"a": "xy"}`},
		{"whitespace outside strings kept", "{\n\t\"a\": \"b\"\n}", "{\n\t\"a\": \"b\"\n}"},
		{"existing escapes untouched", `{"a": "x\ty\"z"}`, `{"a": "x\ty\"z"}`},
		{"escaped backslash before quote", `{"a": "x\\"}`, `{"a": "x\\"}`},
		{"empty input", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, string(sanitizeJSON([]byte(tc.input))))
		})
	}
}
