package http

import (
	_ "embed"
	"net/http"
)

// swagger.json is produced by the go:generate directive in cmd/api.
//
//go:embed swagger.json
var openAPISpec []byte

const docsPage = `<!doctype html>
<html>
  <head>
    <title>Logstudio API</title>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
  </head>
  <body>
    <script id="api-reference" data-url="/api/openapi.json"></script>
    <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
  </body>
</html>
`

// OpenAPISpec serves the embedded Swagger 2.0 document.
func OpenAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPISpec)
}

// APIDocs serves an interactive reference rendered from OpenAPISpec.
func APIDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(docsPage))
}
