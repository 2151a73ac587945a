package run

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotInteractive is returned by PickFile when there is no terminal to ask.
var ErrNotInteractive = errors.New("no source file given and stdin is not a terminal")

// TerminalPrompter asks the operator on a text terminal.
type TerminalPrompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// NewTerminalPrompter reads answers from in and writes questions to out.
// interactive is detected from in when it is a terminal file.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	return newPrompter(in, out, interactive)
}

func newPrompter(in io.Reader, out io.Writer, interactive bool) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out, interactive: interactive}
}

// PickFile asks for the path of a spreadsheet or CSV file. Surrounding
// quotes, as added by terminals on drag and drop, are removed.
func (p *TerminalPrompter) PickFile(ctx context.Context) (string, error) {
	if !p.interactive {
		return "", ErrNotInteractive
	}
	fmt.Fprint(p.out, "マスク対象ファイルを選択 (*.xlsx *.xls *.csv): ")
	line, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	return strings.Trim(line, `"'`), nil
}

// Confirm asks a yes/no question; anything but an explicit yes is a no.
// Without a terminal the answer is no.
func (p *TerminalPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	if !p.interactive {
		slog.Warn("run: cannot confirm without a terminal, assuming no (use --yes)")
		return false, nil
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	line, err := p.readLine(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes", "はい":
		return true, nil
	}
	return false, nil
}

func (p *TerminalPrompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", fmt.Errorf("run: read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
