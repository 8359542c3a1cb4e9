package tags

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"Landscape", "landscape"},
		{"street photography", "street-photography"},
		{"Black & White", "black-white"},
		{"Café", "cafe"},
		{"  spaced  out  ", "spaced-out"},
		{"UPPER_case", "upper-case"},
		{"100mm", "100mm"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.name); got != tt.expected {
			t.Errorf("Slugify(%q) = %q, want %q", tt.name, got, tt.expected)
		}
	}
}

func TestSlugify_AccentsCollapse(t *testing.T) {
	if Slugify("Café") != Slugify("cafe") {
		t.Error("accented and plain names should share a slug")
	}
	if Slugify("Über") != Slugify("uber") {
		t.Error("umlauts should fold to their base letter")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Street  Photography ", "Street Photography"},
		{"one\ttwo", "one two"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.expected {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestValid(t *testing.T) {
	if !Valid("Landscape") {
		t.Error("plain name should be valid")
	}
	if Valid("") {
		t.Error("empty name should be invalid")
	}
	if Valid("???") {
		t.Error("name with no slug characters should be invalid")
	}
	long := make([]byte, MaxTagLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if Valid(string(long)) {
		t.Error("overlong name should be invalid")
	}
}
