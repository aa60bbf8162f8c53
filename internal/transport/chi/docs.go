package chi

import (
	_ "embed"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

//go:embed openapi.json
var openAPISpec []byte

const welcomePage = `<!DOCTYPE html>
<html>
  <head>
    <meta http-equiv="refresh" content="3;url=/docs/index.html" />
    <title>vecgate</title>
  </head>
  <body>
    <h1>vecgate</h1>
    <p>Redirecting to the API documentation in 3 seconds...</p>
    <p>If nothing happens, <a href="/docs/index.html">click here</a>.</p>
  </body>
</html>
`

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(welcomePage))
}

// OpenAPI handles GET /openapi.json.
func (s *Server) OpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(openAPISpec)
}

func docsHandler() http.HandlerFunc {
	return httpSwagger.Handler(httpSwagger.URL("/openapi.json"))
}
