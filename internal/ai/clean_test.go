package ai

import (
	"strings"
	"testing"
)

func TestCleanResponse(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "clean JSON is untouched",
			input: `{"decision":"HOLD","confidence":60}`,
			want:  `{"decision":"HOLD","confidence":60}`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"a\":1}\n```",
			want:  `{"a":1}`,
		},
		{
			name:  "doubled braces collapse",
			input: `{{"a":1}}`,
			want:  `{"a":1}`,
		},
		{
			name:  "quadrupled braces reach the fixed point",
			input: `{{{{"a":1}}}}`,
			want:  `{"a":1}`,
		},
		{
			name:  "prose around the object is trimmed",
			input: `Sure! Here you go: {"a":1} Let me know if you need more.`,
			want:  `{"a":1}`,
		},
		{
			name:  "no braces passes through",
			input: "  just some text  ",
			want:  "just some text",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.cleanResponse(tt.input); got != tt.want {
				t.Errorf("cleanResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanResponse_Idempotent(t *testing.T) {
	p := newTestParser()
	clean := `{"decision":"HOLD","confidence":60,"reasoning":"flat market"}`

	once := p.cleanResponse(clean)
	twice := p.cleanResponse(once)
	if once != clean || twice != clean {
		t.Errorf("cleaner is not a no-op on clean input: %q -> %q -> %q", clean, once, twice)
	}
}

func TestCollapseDoubledBraces_Bounded(t *testing.T) {
	p := newTestParser()
	// Pathological input must terminate within the iteration cap.
	input := strings.Repeat("{", 1<<16)
	got := p.collapseDoubledBraces(input)
	if len(got) == 0 {
		t.Error("collapse consumed the whole input")
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "nested object",
			input: `{"a":{"b":{"c":1}}}`,
			want:  `{"a":{"b":{"c":1}}}`,
		},
		{
			name:  "braces inside string literals",
			input: `{"msg":"a } tricky { value","n":1}`,
			want:  `{"msg":"a } tricky { value","n":1}`,
		},
		{
			name:  "escaped quote inside string",
			input: `{"msg":"he said \"}\"","n":2}`,
			want:  `{"msg":"he said \"}\"","n":2}`,
		},
		{
			name:  "object embedded in prose",
			input: `leading text {"a":1} trailing`,
			want:  `{"a":1}`,
		},
		{
			name:  "first complete object wins",
			input: `{"a":1} {"b":2}`,
			want:  `{"a":1}`,
		},
		{
			name:  "unbalanced outer recovers largest flat object",
			input: `{"outer": {"inner":1}`,
			want:  `{"inner":1}`,
		},
		{
			name:    "no object at all",
			input:   "nothing to see here",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONObject(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("extractJSONObject() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("extractJSONObject() = %q, want %q", got, tt.want)
			}
		})
	}
}
