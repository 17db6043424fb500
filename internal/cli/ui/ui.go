// Package ui prints styled status lines for the aoi CLI.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Styles contains the lipgloss styles used for status lines.
type Styles struct {
	Info    lipgloss.Style
	Start   lipgloss.Style
	Success lipgloss.Style
	Warn    lipgloss.Style
	Error   lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Start:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

// PlainStyles renders without colour, for pipes and tests.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{Info: s, Start: s, Success: s, Warn: s, Error: s}
}

const markdownWidth = 100

// Printer writes status lines and rendered documents.
type Printer struct {
	out      io.Writer
	err      io.Writer
	styles   Styles
	docStyle string
}

// NewPrinter styles output only when stdout is a terminal.
func NewPrinter(out, errOut io.Writer) *Printer {
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return &Printer{out: out, err: errOut, styles: DefaultStyles(), docStyle: glamourstyles.AutoStyle}
	}
	return NewPlainPrinter(out, errOut)
}

// NewPlainPrinter never styles output.
func NewPlainPrinter(out, errOut io.Writer) *Printer {
	return &Printer{out: out, err: errOut, styles: PlainStyles(), docStyle: glamourstyles.NoTTYStyle}
}

func (p *Printer) line(w io.Writer, style lipgloss.Style, icon, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", style.Render(icon), fmt.Sprintf(format, args...))
}

func (p *Printer) Info(format string, args ...interface{}) {
	p.line(p.out, p.styles.Info, "ℹ", format, args...)
}

func (p *Printer) Start(format string, args ...interface{}) {
	p.line(p.out, p.styles.Start, "◐", format, args...)
}

func (p *Printer) Success(format string, args ...interface{}) {
	p.line(p.out, p.styles.Success, "✔", format, args...)
}

func (p *Printer) Warn(format string, args ...interface{}) {
	p.line(p.err, p.styles.Warn, "⚠", format, args...)
}

func (p *Printer) Error(format string, args ...interface{}) {
	p.line(p.err, p.styles.Error, "✖", format, args...)
}

// Println writes raw text.
func (p *Printer) Println(text string) {
	fmt.Fprintln(p.out, text)
}

// Markdown prints a markdown document for reading in a terminal.
func (p *Printer) Markdown(doc string) error {
	rendered, err := RenderMarkdown(doc, p.docStyle)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(p.out, rendered)
	return err
}

// RenderMarkdown renders doc with a glamour standard style ("notty" for plain
// text, "auto" to follow the terminal background).
func RenderMarkdown(doc, style string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(markdownWidth),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(doc)
}
