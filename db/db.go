// Package db bundles the SQL migrations applied by the store at startup and by
// integration tests.
package db

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migration is a single migration script.
type Migration struct {
	Name string
	SQL  string
}

// UpMigrations returns the forward migrations ordered by file name.
func UpMigrations() ([]Migration, error) {
	return load("migrations/*_*.up.sql", false)
}

// DownMigrations returns the rollback migrations, newest first.
func DownMigrations() ([]Migration, error) {
	return load("migrations/*_*.down.sql", true)
}

func load(pattern string, reverse bool) ([]Migration, error) {
	names, err := fs.Glob(migrations, pattern)
	if err != nil {
		return nil, err
	}
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	} else {
		sort.Strings(names)
	}

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		payload, err := migrations.ReadFile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{
			Name: strings.TrimPrefix(name, "migrations/"),
			SQL:  string(payload),
		})
	}
	return out, nil
}
