package web

import "embed"

// Content holds the static assets served under /static/.
//
//go:embed styles.css
var Content embed.FS
