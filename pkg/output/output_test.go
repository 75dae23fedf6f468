package output

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func capture(t *testing.T, f func()) string {
	t.Helper()
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)

	f()
	return buf.String()
}

func TestMessages(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string)
		emoji string
	}{
		{"success", Success, "✅"},
		{"error", Error, "❌"},
		{"warn", Warn, "⚠️"},
		{"info", Info, "ℹ️"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := capture(t, func() { tt.fn("message for " + tt.name) })
			if !strings.Contains(got, tt.emoji) {
				t.Errorf("expected %s in output, got %q", tt.emoji, got)
			}
			if !strings.Contains(got, "message for "+tt.name) {
				t.Errorf("expected message in output, got %q", got)
			}
		})
	}
}

func TestStep(t *testing.T) {
	got := capture(t, func() { Step("Program.cs") })
	if !strings.Contains(got, "   Program.cs") {
		t.Errorf("expected indented step, got %q", got)
	}
}

func TestVerbose(t *testing.T) {
	SetVerbose(false)
	if got := capture(t, func() { Verbose("hidden") }); got != "" {
		t.Errorf("expected no output when verbose is off, got %q", got)
	}

	SetVerbose(true)
	defer SetVerbose(false)
	if got := capture(t, func() { Verbose("shown") }); !strings.Contains(got, "shown") {
		t.Errorf("expected verbose output, got %q", got)
	}
}

func TestSpin_NonTerminalRunsDirectly(t *testing.T) {
	var buf bytes.Buffer
	want := errors.New("boom")

	called := false
	err := Spin(context.Background(), &buf, "Loading", func(ctx context.Context) error {
		called = true
		return want
	})

	if !called {
		t.Fatal("expected fn to run")
	}
	if !errors.Is(err, want) {
		t.Errorf("expected wrapped fn error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected nothing written to a non-terminal, got %q", buf.String())
	}
}

func TestSpinnerModel(t *testing.T) {
	m := newSpinnerModel("Evaluating")
	if !strings.Contains(m.View(), "Evaluating...") {
		t.Errorf("unexpected in-progress view %q", m.View())
	}

	model, cmd := m.Update(spinnerDoneMsg{})
	if cmd == nil {
		t.Fatal("expected quit command after done")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if got := model.View(); !strings.Contains(got, "✅ Evaluating") {
		t.Errorf("unexpected done view %q", got)
	}

	m = newSpinnerModel("Evaluating")
	m.Update(spinnerDoneMsg{err: errors.New("x")})
	if !strings.Contains(m.View(), "❌") {
		t.Errorf("expected failure view, got %q", m.View())
	}
}
