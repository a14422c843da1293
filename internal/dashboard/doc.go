// Package dashboard serves the browser control panel.
//
// A small dashboard is embedded into the binary with go:embed. A built
// front end can replace it at runtime by pointing Handler at its output
// directory. Either way, unknown paths fall back to index.html so
// client-side routing works.
package dashboard
