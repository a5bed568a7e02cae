package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/howeyc/gopass"
)

// Prompter asks the user for input.
type Prompter interface {
	Line(label string) (string, error)
	Secret(label string) (string, error)
}

type terminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalPrompter(in io.Reader, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: bufio.NewReader(in), out: out}
}

func (p *terminalPrompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label+": ")
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Secret reads without echo.
func (p *terminalPrompter) Secret(label string) (string, error) {
	fmt.Fprint(p.out, label+": ")
	pass, err := gopass.GetPasswd()
	return string(pass), err
}
