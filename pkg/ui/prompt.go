package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoAnswer is returned when input ends before a yes or no
var ErrNoAnswer = errors.New("no confirmation given")

// Confirm prints description and asks until the answer starts with y or n.
// Anything else, including an empty line, asks again.
func Confirm(in io.Reader, out io.Writer, description string) (bool, error) {
	fmt.Fprintln(out, description)

	reader := bufio.NewReader(in)
	for {
		fmt.Fprintln(out, "Please confirm. Yes/No")
		line, err := reader.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer != "" {
			switch answer[0] {
			case 'y':
				return true, nil
			case 'n':
				return false, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, ErrNoAnswer
			}
			return false, err
		}
	}
}

// Ask prints prompt and returns one trimmed line
func Ask(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadSecret reads a line without echo when stdin is a terminal, and a
// plain line otherwise
func ReadSecret(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return Ask(reader, out, prompt)
	}

	fmt.Fprint(out, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(secret)), nil
}

// IsInteractive reports whether f is a terminal
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
