package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		debug   bool
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, false, true},
		{"debug at info level", log.InfoLevel, true, false},
		{"debug at debug level", log.DebugLevel, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := newLogger(&buf, tt.level)
			if tt.debug {
				l.Debug("test")
			} else {
				l.Info("test")
			}
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("logged = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestLoggerContext(t *testing.T) {
	l := newLogger(&bytes.Buffer{}, log.InfoLevel)
	if got := loggerFromContext(withLogger(context.Background(), l)); got != l {
		t.Error("loggerFromContext() did not return the attached logger")
	}
	if loggerFromContext(context.Background()) == nil {
		t.Error("loggerFromContext() without a logger = nil, want log.Default()")
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("Explored 2 start nodes")
	if out := buf.String(); !strings.Contains(out, "Explored 2 start nodes (") {
		t.Errorf("done() output = %q, want message with elapsed time", out)
	}
}

func TestDebugTracesExplorations(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	graph := writeFile(t, "app.yaml", fixture)

	var logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.SetLogLevel(LogDebug)
	root := c.RootCommand()
	root.SetArgs([]string{"query", graph, "--from", "secret", "--to-id", "log", "--no-cache"})
	root.SetOut(&bytes.Buffer{})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("query error = %v", err)
	}
	for _, want := range []string{"loaded graph", "explore", "start=secret"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("debug log missing %q:\n%s", want, logs.String())
		}
	}
}
