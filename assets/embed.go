package assets

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql profiles.json
var FS embed.FS

// Migrations returns the SQL migration files, rooted at the migrations dir.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "migrations")
	if err != nil {
		// the embed pattern guarantees the directory exists
		panic(err)
	}
	return sub
}

// SeedProfiles returns the built-in profile cards as JSON.
func SeedProfiles() ([]byte, error) {
	return FS.ReadFile("profiles.json")
}
