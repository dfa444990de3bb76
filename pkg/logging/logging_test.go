package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("debug", &buf)
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level %v", log.GetLevel())
	}
	log.WithField("hash", "abc").Debug("processed")
	if out := buf.String(); !strings.Contains(out, "hash=abc") || !strings.Contains(out, "processed") {
		t.Fatalf("output %q", out)
	}
}

func TestNewUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("chatty", &buf)
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level %v", log.GetLevel())
	}
	if !strings.Contains(buf.String(), "unknown log level") {
		t.Fatalf("missing warning: %q", buf.String())
	}
}
