package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	apperrors "github.com/imagehost/backend/internal/errors"
)

func TestLogger_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug, "test")

	ctx := context.Background()
	log.Info(ctx, "test message", map[string]interface{}{
		"key": "value",
	})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}

	if entry.Level != "info" {
		t.Errorf("expected level info, got %s", entry.Level)
	}
	if entry.Message != "test message" {
		t.Errorf("expected message 'test message', got %s", entry.Message)
	}
	if entry.Component != "test" {
		t.Errorf("expected component test, got %s", entry.Component)
	}
	if entry.Fields["key"] != "value" {
		t.Errorf("expected field key=value, got %v", entry.Fields["key"])
	}
}

func TestLogger_RequestIDPropagation(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug, "")

	ctx := apperrors.WithRequestID(context.Background(), "test-request-id")
	log.Info(ctx, "test message", nil)

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}

	if entry.RequestID != "test-request-id" {
		t.Errorf("expected request_id 'test-request-id', got %s", entry.RequestID)
	}
}

func TestLogger_LogLevels(t *testing.T) {
	tests := []struct {
		minLevel     Level
		logLevel     string
		shouldOutput bool
	}{
		{LevelInfo, "debug", false},
		{LevelInfo, "info", true},
		{LevelWarn, "info", false},
		{LevelWarn, "warn", true},
		{LevelError, "warn", false},
		{LevelError, "error", true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		log := New(&buf, tt.minLevel, "")

		ctx := context.Background()
		switch tt.logLevel {
		case "debug":
			log.Debug(ctx, "test", nil)
		case "info":
			log.Info(ctx, "test", nil)
		case "warn":
			log.Warn(ctx, "test", nil)
		case "error":
			log.Error(ctx, "test", nil, nil)
		}

		hasOutput := buf.Len() > 0
		if hasOutput != tt.shouldOutput {
			t.Errorf("minLevel=%s, logLevel=%s: expected output=%v, got=%v",
				tt.minLevel, tt.logLevel, tt.shouldOutput, hasOutput)
		}
	}
}

func TestLogger_AppErrorDetails(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug, "")

	log.Error(context.Background(), "lookup failed", apperrors.NotFound("post not found"), nil)

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}

	if entry.Error == nil {
		t.Fatal("expected error details in log entry")
	}
	if entry.Error.Code != "NOT_FOUND" {
		t.Errorf("expected code NOT_FOUND, got %s", entry.Error.Code)
	}
}

func TestLogger_PlainErrorDetails(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "")

	log.Error(context.Background(), "oops", errors.New("boom"), nil)

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}

	if entry.Error == nil || entry.Error.Message != "boom" {
		t.Errorf("expected error message 'boom', got %+v", entry.Error)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"unknown", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		result := ParseLevel(tt.input)
		if result != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
		}
	}
}
