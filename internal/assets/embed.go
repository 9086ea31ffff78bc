// Package assets holds the browser bootstrap script served next to the widgets.
package assets

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
)

// BootstrapPath is the default URL path the bootstrap script is served from.
const BootstrapPath = "/assets/multimap.js"

//go:embed multimap.js
var bootstrapJS []byte

// BootstrapJS returns the bootstrap script.
func BootstrapJS() []byte {
	return bootstrapJS
}

// BootstrapETag is a strong validator for the embedded script.
func BootstrapETag() string {
	h := sha256.Sum256(bootstrapJS)
	return `"` + hex.EncodeToString(h[:8]) + `"`
}
