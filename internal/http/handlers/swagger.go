package handlers

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed openapi.yaml
var openAPISpec []byte

var docsPage = template.Must(template.New("docs").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width,initial-scale=1" />
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: {{.SpecURL}},
        dom_id: "#swagger-ui",
        deepLinking: true,
        presets: [SwaggerUIBundle.presets.apis],
        layout: "BaseLayout"
      });
    </script>
  </body>
</html>`))

// DocsHandler serves the Swagger UI page and the embedded OpenAPI document.
type DocsHandler struct {
	page     []byte
	specETag string
}

func NewDocsHandler(specURL string) (*DocsHandler, error) {
	var buf bytes.Buffer
	err := docsPage.Execute(&buf, struct{ Title, SpecURL string }{
		Title:   "CollabZone API Docs",
		SpecURL: specURL,
	})
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(openAPISpec)

	return &DocsHandler{
		page:     buf.Bytes(),
		specETag: `"` + hex.EncodeToString(sum[:8]) + `"`,
	}, nil
}

func (h *DocsHandler) UI(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", h.page)
}

func (h *DocsHandler) Spec(ctx *gin.Context) {
	ctx.Header("ETag", h.specETag)
	if etagMatches(ctx.GetHeader("If-None-Match"), h.specETag) {
		ctx.Status(http.StatusNotModified)
		return
	}
	ctx.Data(http.StatusOK, "application/yaml", openAPISpec)
}
