package db

import (
	"embed"
	"io/fs"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// schema is the migrations directory as the root of an fs.FS, the layout goose expects.
var schema = mustSub(migrationFiles, "migrations")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}

	return sub
}

// SchemaVersion returns the number of embedded SQL migrations. The readiness
// endpoint reports it so operators can tell which schema a binary expects.
func SchemaVersion() int {
	entries, err := fs.ReadDir(schema, ".")
	if err != nil {
		return 0
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			count++
		}
	}

	return count
}
