package ui

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// Logo is printed above interactive commands
const Logo = `
  _                     _
 | |___      _____  ___| |_ _____      _____  ___ _ __
 | __\ \ /\ / / _ \/ _ \ __/ __\ \ /\ / / _ \/ _ \ '_ \
 | |_ \ V  V /  __/  __/ |_\__ \\ V  V /  __/  __/ |_) |
  \__| \_/\_/ \___|\___|\__|___/ \_/\_/ \___|\___| .__/
                                                 |_|
`

var (
	quiet   atomic.Bool
	noColor atomic.Bool
	stdout  io.Writer = os.Stdout
)

// SetQuietMode suppresses everything but errors
func SetQuietMode(q bool) { quiet.Store(q) }

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool { return quiet.Load() }

// SetNoColor disables ANSI colours
func SetNoColor(n bool) { noColor.Store(n) }

// SetOutput redirects all printing; nil restores stdout
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	stdout = w
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Bold    = colorize("\033[1m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

func colorize(colorString string) func(string) string {
	return func(text string) string {
		if noColor.Load() {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintLogo prints the logo unless quiet
func PrintLogo() {
	if IsQuietMode() {
		return
	}
	fmt.Fprint(stdout, Cyan(Logo))
}

// PrintError prints an error message in red, even in quiet mode
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 && fmt.Sprint(args[0]) != "" {
		fmt.Fprintln(stdout, Red(msg+": "+fmt.Sprint(args[0])))
		return
	}
	fmt.Fprintln(stdout, Red(msg))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintln(stdout, Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintf(stdout, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	if len(args) > 0 {
		fmt.Fprintln(stdout, Yellow(msg+": "+fmt.Sprint(args[0])))
		return
	}
	fmt.Fprintln(stdout, Yellow(msg))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintln(stdout, Magenta(msg))
}
