package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"auth-client/internal/bootstrap"
)

// Prompter reads form fields from a terminal. Passwords are read without
// echo when the input is a TTY; otherwise they are read as plain lines,
// which is what scripts and tests pipe in.
type Prompter struct {
	in   *bufio.Reader
	out  io.Writer
	fd   int
	tty  bool
	read func(fd int) ([]byte, error)
}

// NewPrompter wraps in/out. When in is an *os.File attached to a terminal
// the password fields are masked.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{
		in:   bufio.NewReader(in),
		out:  out,
		fd:   -1,
		read: term.ReadPassword,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.tty = true
	}
	return p
}

// Line prints label and returns the next line without its newline.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Secret reads a password. Surrounding spaces are kept.
func (p *Prompter) Secret(label string) (string, error) {
	if !p.tty {
		return p.Line(label)
	}
	fmt.Fprint(p.out, label)
	b, err := p.read(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// Form collects the fields for the given form type.
func (p *Prompter) Form(kind bootstrap.FormType) (bootstrap.FormData, error) {
	form := bootstrap.FormData{Type: kind}

	var err error
	if form.Email, err = p.Line("Email: "); err != nil {
		return form, err
	}
	if form.Password, err = p.Secret("Password: "); err != nil {
		return form, err
	}
	if kind == bootstrap.FormSignup {
		if form.ConfirmPassword, err = p.Secret("Confirm password: "); err != nil {
			return form, err
		}
	}
	return form, nil
}
