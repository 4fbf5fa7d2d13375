// Package views holds the page templates, embedded so tests and the binary
// render the same files.
package views

import (
	"embed"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed *.html layouts/*.html
var FS embed.FS

// DefaultLayout wraps every page.
const DefaultLayout = "layouts/main"

// NewEngine returns the html engine over the embedded templates.
func NewEngine() *html.Engine {
	return html.NewFileSystem(http.FS(FS), ".html")
}
