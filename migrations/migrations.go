// Package migrations embeds the SQL schema applied by cmd/migrate.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.sql
var files embed.FS

// Files returns the migration file names for direction "up" or "down", in
// the order they must be applied.
func Files(direction string) ([]string, error) {
	matches, err := fs.Glob(files, "*."+direction+".sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	if direction == "down" {
		sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	}
	return matches, nil
}

// Read returns the SQL of one migration file.
func Read(name string) (string, error) {
	data, err := files.ReadFile(strings.TrimPrefix(name, "./"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
