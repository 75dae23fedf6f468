// Package input provides interactive terminal input utilities.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Confirm asks the user a yes/no question on stdin.
// Returns true if the user answers yes (y/Y/yes/YES), false otherwise.
// If defaultYes is true, pressing Enter returns true.
//
// Example:
//
//	if input.Confirm("heron.yml exists. Overwrite?", false) {
//	    // write the file
//	}
//	// Displays: heron.yml exists. Overwrite? [y/N]: _
func Confirm(message string, defaultYes bool) bool {
	return ConfirmFrom(os.Stdin, os.Stdout, message, defaultYes)
}

// ConfirmFrom is Confirm with explicit input and output streams
func ConfirmFrom(in io.Reader, out io.Writer, message string, defaultYes bool) bool {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}

	fmt.Fprint(out, promptStyle.Render(message)+" "+hintStyle.Render(hint)+": ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return defaultYes
	}

	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer == "" {
		return defaultYes
	}

	return answer == "y" || answer == "yes"
}
