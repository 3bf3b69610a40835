package infra

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// ConsolePrompter implements domain.ExcusePrompter on a terminal.
// It blocks until the user answers; pressing enter on an empty line
// declines the bargain.
type ConsolePrompter struct {
	in  io.Reader
	out io.Writer
}

// NewConsolePrompter creates a prompter on the given streams.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{in: in, out: out}
}

// PromptExcuse asks for an excuse and returns the typed line.
// The read happens on its own goroutine so ctx cancellation is honored
// even while the terminal read is blocked.
func (p *ConsolePrompter) PromptExcuse(ctx context.Context, minutesLeft int) (string, error) {
	fmt.Fprintf(p.out, "Mom: %d minutes left before lights out. Got something to say?\n> ", minutesLeft)

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		reader := bufio.NewReader(p.in)
		line, err := reader.ReadString('\n')
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil && r.line == "" {
			return "", r.err
		}
		return r.line, nil
	}
}

// Ensure ConsolePrompter implements domain.ExcusePrompter.
var _ domain.ExcusePrompter = (*ConsolePrompter)(nil)
