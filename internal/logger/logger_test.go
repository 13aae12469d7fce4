package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNoopBeforeInit(t *testing.T) {
	Close()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("logging before Init panicked: %v", r)
		}
	}()

	Debugf("x %d", 1)
	Infof("x")
	Warnf("x")
	Errorf("x")
	WithFields(Fields{"k": "v"}).Info("discarded")
}

func TestInitLevel(t *testing.T) {
	var buf bytes.Buffer
	Init("warn", "text", &buf)
	defer Close()

	Infof("hidden")
	Warnf("shown %s", "warning")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("expected info to be filtered at warn level")
	}
	if !strings.Contains(out, "shown warning") {
		t.Errorf("expected warning in output, got %q", out)
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	Init("debug", "json", &buf)
	defer Close()

	WithFields(Fields{"stream": "abc"}).Debug("chunk")

	out := buf.String()
	if !strings.Contains(out, `"stream":"abc"`) {
		t.Errorf("expected JSON field in output, got %q", out)
	}
}

func TestInitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ollamachat.log")

	if err := InitFile("info", path); err != nil {
		t.Fatalf("InitFile failed: %v", err)
	}
	Infof("written to file")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("expected message in log file, got %q", string(data))
	}
}
