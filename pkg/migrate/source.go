package migrate

import (
	"embed"
	"io/fs"
)

// Dir is the on-disk location of the migrations, relative to the repo root.
// New files are created here; binaries read the embedded copy.
const Dir = "pkg/migrate/migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Source returns the migrations compiled into the binary.
func Source() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}
