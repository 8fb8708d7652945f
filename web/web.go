// Package web embeds the single-page client served at the site root.
package web

import _ "embed"

// IndexHTML is the list/form page. It talks to the API only through
// /api/students.
//
//go:embed index.html
var IndexHTML []byte
