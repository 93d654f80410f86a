package doclai

import "testing"

func TestHashText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple text",
			input:    "Hello World",
			expected: "b10a8db164e0754105b7a99be72e3fe5",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "d41d8cd98f00b204e9800998ecf8427e",
		},
		{
			name:  "whitespace is significant",
			input: "Hello World ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := HashText(tt.input)
			if tt.expected != "" && result != tt.expected {
				t.Errorf("HashText(%q) = %q, want %q", tt.input, result, tt.expected)
			}
			// MD5 = 32 hex chars
			if len(result) != 32 {
				t.Errorf("HashText(%q) length = %d, want 32", tt.input, len(result))
			}
		})
	}

	if HashText("Hello World") == HashText("Hello World ") {
		t.Error("trailing whitespace should change the hash")
	}
}

func TestCacheKey(t *testing.T) {
	result := CacheKey("en", "b10a8db164e0754105b7a99be72e3fe5")
	expected := "en:b10a8db164e0754105b7a99be72e3fe5"

	if result != expected {
		t.Errorf("CacheKey() = %q, want %q", result, expected)
	}
}

func TestCacheKeyFor(t *testing.T) {
	if got, want := CacheKeyFor("fr", "Hello World"), "fr:b10a8db164e0754105b7a99be72e3fe5"; got != want {
		t.Errorf("CacheKeyFor() = %q, want %q", got, want)
	}
}
