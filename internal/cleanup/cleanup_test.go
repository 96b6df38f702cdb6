package cleanup

import (
	"errors"
	"strings"
	"testing"
)

func TestRunAll_NewestFirst(t *testing.T) {
	var order []string
	Register("first", func() error { order = append(order, "first"); return nil })
	Register("second", func() error { order = append(order, "second"); return nil })
	Register("ignored", nil)

	if err := RunAll(); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if strings.Join(order, ",") != "second,first" {
		t.Fatalf("order = %v", order)
	}
	if err := RunAll(); err != nil {
		t.Fatalf("drained queue should be a no-op, got %v", err)
	}
	if len(order) != 2 {
		t.Fatalf("hooks ran twice: %v", order)
	}
}

func TestRunAll_JoinsNamedErrors(t *testing.T) {
	errClose := errors.New("file already closed")
	ran := false
	Register("log file", func() error { return errClose })
	Register("partial output", func() error { ran = true; return nil })

	err := RunAll()
	if !ran {
		t.Fatal("hook after a failing one did not run")
	}
	if !errors.Is(err, errClose) {
		t.Fatalf("err = %v, want wrapped %v", err, errClose)
	}
	if !strings.Contains(err.Error(), "log file: file already closed") {
		t.Fatalf("error does not name the hook: %q", err)
	}
}
