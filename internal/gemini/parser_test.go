package gemini

import (
	"reflect"
	"testing"
)

func TestExtractStringList(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   []string
		wantOK bool
	}{
		{
			name:   "plain array",
			input:  `["genre:\"OPM\" energy", "mellow acoustic indie pop"]`,
			want:   []string{`genre:"OPM" energy`, "mellow acoustic indie pop"},
			wantOK: true,
		},
		{
			name:   "fenced array",
			input:  "```json\n[\"a\", \"b\", \"c\"]\n```",
			want:   []string{"a", "b", "c"},
			wantOK: true,
		},
		{
			name:   "array inside prose",
			input:  "Here are the queries:\n[\"one\", \"two\"]\nHope this helps!",
			want:   []string{"one", "two"},
			wantOK: true,
		},
		{
			name:   "empty array",
			input:  "[]",
			wantOK: false,
		},
		{
			name:   "whitespace-only entries",
			input:  `["  ", ""]`,
			wantOK: false,
		},
		{
			name:   "array nested in object is still found",
			input:  `{"queries": ["a"]}`,
			want:   []string{"a"},
			wantOK: true,
		},
		{
			name:   "non-string elements",
			input:  `[1, 2, 3]`,
			wantOK: false,
		},
		{
			name:   "free text",
			input:  "I couldn't generate any queries, sorry.",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractStringList(tt.input)
			if got.OK != tt.wantOK {
				t.Fatalf("OK = %v, want %v", got.OK, tt.wantOK)
			}
			if tt.wantOK && !reflect.DeepEqual(got.Values, tt.want) {
				t.Errorf("Values = %v, want %v", got.Values, tt.want)
			}
		})
	}
}
