// Package assets embeds the mini-app static bundle served by the API.
package assets

import "embed"

//go:embed static
var StaticFS embed.FS
