// Package web holds the landing page markup served at "/".
package web

import (
	_ "embed"
)

//go:embed index.html
var IndexHTML []byte
