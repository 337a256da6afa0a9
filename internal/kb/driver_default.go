//go:build !(sqlite_vec && cgo)

package kb

import (
	_ "modernc.org/sqlite"
)

// Pure-Go driver; vector search runs as an in-process cosine scan.
const driverName = "sqlite"
