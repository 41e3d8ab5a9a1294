// Package appfs exposes the embedded static assets: database migrations,
// email templates and the common-passwords list.
package appfs

import "embed"

//go:embed migrations all:templates assets
var FS embed.FS
