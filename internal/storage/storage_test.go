package storage

import (
	"strings"
	"testing"
)

func TestIsAllowedImageType(t *testing.T) {
	tests := []struct {
		contentType string
		allowed     bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"image/gif", true},
		{"image/webp", true},
		{"image/jpeg; charset=utf-8", true},
		{"image/svg+xml", false},
		{"application/pdf", false},
		{"text/html", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsAllowedImageType(tt.contentType); got != tt.allowed {
			t.Errorf("IsAllowedImageType(%q) = %v, want %v", tt.contentType, got, tt.allowed)
		}
	}
}

func TestStorageKey(t *testing.T) {
	hash := "a3f5e8b2c1d4a3f5e8b2c1d4a3f5e8b2c1d4a3f5e8b2c1d4a3f5e8b2c1d4a3f5"

	key := StorageKey(hash, "image/png")

	if !strings.HasPrefix(key, "images/a3/") {
		t.Errorf("key %q should shard on the first two hash characters", key)
	}
	if !strings.HasSuffix(key, hash+".png") {
		t.Errorf("key %q should end with hash and extension", key)
	}
}

func TestStorageKey_SameHashSameKey(t *testing.T) {
	hash := "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"

	if StorageKey(hash, "image/jpeg") != StorageKey(hash, "image/jpeg") {
		t.Error("storage keys must be deterministic for deduplication")
	}
}
