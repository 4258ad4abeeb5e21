package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/svlsp/svlsp/location"
)

// ReadFilelist parses a .f file: one path per line, '#' or '//' comments,
// trailing '\' continues the line on the next one (the joined line is split
// on whitespace, so each piece is its own entry), blank lines ignored.
//
// Entries resolve against the filelist's own directory unless absolute is
// set, in which case they are taken as absolute paths.
func ReadFilelist(path location.CanonicalPath, absolute bool) ([]location.CanonicalPath, error) {
	f, err := os.Open(path.OSPath())
	if err != nil {
		return nil, fmt.Errorf("open filelist %q: %w", path.String(), err)
	}
	defer f.Close()

	dir := path.Dir()
	var files []location.CanonicalPath
	var accumulated string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments. A line starting with '/' is a
		// comment only for '//'; an absolute path entry also starts with
		// '/', so check both characters.
		if line == "" || line[0] == '#' || strings.HasPrefix(line, "//") {
			continue
		}

		// Trailing backslash continues the logical line on the next line.
		if strings.HasSuffix(line, "\\") {
			accumulated += strings.TrimSpace(strings.TrimSuffix(line, "\\")) + " "
			continue
		}

		logical := accumulated + line
		accumulated = ""

		// A logical line may carry several whitespace-separated entries
		// (common in tool-generated filelists).
		for _, entry := range strings.Fields(logical) {
			var full location.CanonicalPath
			if absolute || strings.HasPrefix(entry, "/") {
				full = location.New(entry)
			} else {
				joined, err := dir.Join(entry)
				if err != nil {
					continue
				}
				full = joined
			}
			if !full.IsZero() {
				files = append(files, full)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read filelist %q: %w", path.String(), err)
	}
	return files, nil
}
