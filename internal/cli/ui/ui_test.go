package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinterLines(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPlainPrinter(&out, &errOut)

	p.Info("Data sha256 hash = %s", "abc")
	p.Success("Submitted solution %s", "s1")
	p.Error("Session expired")

	assert.Equal(t, "ℹ Data sha256 hash = abc\n✔ Submitted solution s1\n", out.String())
	assert.Equal(t, "✖ Session expired\n", errOut.String())
}

func TestNewPrinterPlainForBuffers(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, &out)
	p.Start("Uploading data")
	assert.Equal(t, "◐ Uploading data\n", out.String())
}

func TestRenderMarkdown(t *testing.T) {
	doc := "# A+B\n\nRead **two** numbers.\n\n```\n1 2\n```\n\n- first\n- second\n"
	got, err := RenderMarkdown(doc, "notty")
	require.NoError(t, err)

	assert.Contains(t, got, "# A+B")
	assert.Contains(t, got, "numbers.")
	assert.Contains(t, got, "1 2")
	assert.Contains(t, got, "• first")
	assert.NotContains(t, got, "```")
}

func TestRenderMarkdownUnknownStyle(t *testing.T) {
	_, err := RenderMarkdown("text", "no-such-style")
	assert.Error(t, err)
}

func TestPrinterMarkdown(t *testing.T) {
	var out bytes.Buffer
	p := NewPlainPrinter(&out, &out)
	require.NoError(t, p.Markdown("Add two numbers."))
	assert.Contains(t, out.String(), "Add two numbers.")
}
