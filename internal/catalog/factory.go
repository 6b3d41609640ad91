package catalog

import (
	"context"
	"fmt"
	"os"
)

// Open selects a catalog driver using environment variables.
//
//	DATAPACK_CATALOG_DRIVER: sqlite|postgres|memory (default sqlite)
//	DATAPACK_CATALOG_PATH: sqlite file path (default defaultPath argument)
//	DATAPACK_CATALOG_DSN: postgres connection string
func Open(ctx context.Context, defaultPath string) (Store, error) {
	driver := os.Getenv("DATAPACK_CATALOG_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	switch driver {
	case "sqlite":
		path := os.Getenv("DATAPACK_CATALOG_PATH")
		if path == "" {
			path = defaultPath
		}
		return NewSQLite(path)
	case "postgres":
		return NewPostgres(ctx, os.Getenv("DATAPACK_CATALOG_DSN"))
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown catalog driver %s", driver)
	}
}
