// Package prompt asks yes/no questions on the terminal. Without a terminal
// on stdin it never blocks: the question fails with ErrNotInteractive and
// the caller falls back to its safe default.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/oukeidos/potrans/internal/i18n"
)

var ErrNotInteractive = errors.New("stdin is not a terminal")

type Confirmer struct {
	In  io.Reader
	Out io.Writer
	// Interactive reports whether In is attached to a person. Nil means no.
	Interactive func() bool
}

// DefaultConfirmer reads stdin and writes questions to stdout.
func DefaultConfirmer() Confirmer {
	return Confirmer{
		In:          os.Stdin,
		Out:         os.Stdout,
		Interactive: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
}

// Confirm shows question with a "(y/n)" hint and reads one answer. Only
// y or yes, in any case, count as consent; EOF is a no. assumeYes skips
// the question entirely.
func (c Confirmer) Confirm(question string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if c.Interactive == nil || !c.Interactive() {
		return false, fmt.Errorf("%w: use -y to answer %q", ErrNotInteractive, question)
	}
	if c.Out != nil {
		fmt.Fprintf(c.Out, "%s (y/n): ", question)
	}
	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// ConfirmRetry asks whether n failed entries should be sent again now.
func (c Confirmer) ConfirmRetry(n int, assumeYes bool) (bool, error) {
	return c.Confirm(i18n.N("Retry %d failed entry?", "Retry %d failed entries?", n, n), assumeYes)
}
