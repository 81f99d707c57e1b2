package skills

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple list",
			input:    "Go, PostgreSQL, Kubernetes",
			expected: []string{"Go", "PostgreSQL", "Kubernetes"},
		},
		{
			name:     "no spaces",
			input:    "Go,PostgreSQL",
			expected: []string{"Go", "PostgreSQL"},
		},
		{
			name:     "extra whitespace",
			input:    "  Go ,   SQL  ",
			expected: []string{"Go", "SQL"},
		},
		{
			name:     "empty segments dropped",
			input:    "Go,,SQL,",
			expected: []string{"Go", "SQL"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: []string{},
		},
		{
			name:     "only commas",
			input:    ",,,",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected string
	}{
		{
			name:     "simple list",
			input:    []string{"Go", "SQL"},
			expected: "Go, SQL",
		},
		{
			name:     "single element",
			input:    []string{"Go"},
			expected: "Go",
		},
		{
			name:     "nil list",
			input:    nil,
			expected: "",
		},
		{
			name:     "empty list",
			input:    []string{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Join(tt.input)
			if result != tt.expected {
				t.Errorf("Join(%v) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// Join(Parse(s)) reconstructs the normalized comma-space form of s.
func TestRoundTrip(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Go,SQL,  Kubernetes ", "Go, SQL, Kubernetes"},
		{" a , b ,, c ", "a, b, c"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
