package command

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	illegalChars  = regexp.MustCompile(`[/\?<>\\:\*\|"\x00-\x1f\x80-\x9f]`)
	reservedNames = regexp.MustCompile(`^\.+$`)
	windowsNames  = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[0-9]|lpt[0-9])(\..*)?$`)
	trailing      = regexp.MustCompile(`[\. ]+$`)
)

const maxFilenameBytes = 255

// sanitizeFilename turns an arbitrary string into a single safe path element.
func sanitizeFilename(name string) string {
	name = illegalChars.ReplaceAllString(name, "")
	name = reservedNames.ReplaceAllString(name, "")
	name = windowsNames.ReplaceAllString(name, "")
	name = trailing.ReplaceAllString(name, "")
	for len(name) > maxFilenameBytes {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	if strings.TrimSpace(name) == "" {
		return "_"
	}
	return name
}
