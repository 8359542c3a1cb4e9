package cache

import "testing"

func TestFeedKey(t *testing.T) {
	tests := []struct {
		sort     string
		limit    int
		offset   int
		expected string
	}{
		{"recent", 20, 0, "feed:recent:20:0"},
		{"popular", 50, 100, "feed:popular:50:100"},
		{"trending", 10, 10, "feed:trending:10:10"},
	}

	for _, tt := range tests {
		if got := FeedKey(tt.sort, tt.limit, tt.offset); got != tt.expected {
			t.Errorf("FeedKey(%q, %d, %d) = %q, want %q", tt.sort, tt.limit, tt.offset, got, tt.expected)
		}
	}
}

func TestPostKey(t *testing.T) {
	if got := PostKey("abc-123"); got != "post:abc-123" {
		t.Errorf("PostKey = %q, want post:abc-123", got)
	}
}

func TestFeedKeysShareInvalidationPrefix(t *testing.T) {
	key := FeedKey("recent", 20, 0)
	if len(key) < len(FeedPrefix) || key[:len(FeedPrefix)] != FeedPrefix {
		t.Errorf("feed key %q does not start with prefix %q", key, FeedPrefix)
	}
}
