package api

import (
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		url        string
		wantLimit  int
		wantOffset int
	}{
		{"/api/posts", defaultPageLimit, 0},
		{"/api/posts?limit=50&offset=10", 50, 10},
		{"/api/posts?limit=1000", maxPageLimit, 0},
		{"/api/posts?limit=-5", defaultPageLimit, 0},
		{"/api/posts?limit=abc&offset=xyz", defaultPageLimit, 0},
		{"/api/posts?offset=-1", defaultPageLimit, 0},
	}

	for _, tt := range tests {
		r := httptest.NewRequest("GET", tt.url, nil)
		limit, offset := parsePagination(r)
		if limit != tt.wantLimit || offset != tt.wantOffset {
			t.Errorf("parsePagination(%q) = (%d, %d), want (%d, %d)",
				tt.url, limit, offset, tt.wantLimit, tt.wantOffset)
		}
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"under_score", `under\_score`},
		{`back\slash`, `back\\slash`},
	}

	for _, tt := range tests {
		if got := escapeLike(tt.input); got != tt.expected {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
