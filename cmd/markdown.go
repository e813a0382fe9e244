package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// SetupLogging sends provider diagnostics to stderr in verbose mode only.
func SetupLogging() {
	log.SetFlags(0)
	if !*Verbose {
		log.SetOutput(io.Discard)
	}
}

// printMarkdown renders md for the terminal, or prints it as is when stdout
// is not one.
func printMarkdown(md string) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		fmt.Print(md)
		return
	}
	width := 100
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		width = w
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// printJSON writes v as indented JSON, followed by a newline.
func printJSON(w io.Writer, v any) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(content))
	return err
}
