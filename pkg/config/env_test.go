package config

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestGetEnvDefault(t *testing.T) {
	t.Setenv("SALESLOOP_TEST_MISSING", "")
	if got := GetEnv("SALESLOOP_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}

	t.Setenv("SALESLOOP_TEST_SET", "value")
	if got := GetEnv("SALESLOOP_TEST_SET", "fallback"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("SALESLOOP_TEST_INT", "42")
	if got := GetEnvInt("SALESLOOP_TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}

	t.Setenv("SALESLOOP_TEST_INT", "not-a-number")
	if got := GetEnvInt("SALESLOOP_TEST_INT", 7); got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	if got := GetLogLevel(); got != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", got)
	}

	t.Setenv("LOG_LEVEL", "")
	if got := GetLogLevel(); got != logrus.InfoLevel {
		t.Fatalf("expected info level, got %v", got)
	}
}
