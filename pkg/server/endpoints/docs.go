package endpoints

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/doodlesbykumbi/keycustody/pkg/server"
)

//go:embed docs/api.md
var apiReference []byte

const docsPage = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width">
    <title>Key Custody API</title>
  </head>
  <body>
%s  </body>
</html>
`

// RegisterDocsEndpoint registers GET /docs
func RegisterDocsEndpoint(s *server.Server) {
	s.Router.HandleFunc("/docs", handleDocs()).Methods("GET")
}

// renderDocs converts the embedded Markdown reference to an HTML page.
func renderDocs(source []byte) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	var body bytes.Buffer
	if err := md.Convert(source, &body); err != nil {
		return nil, err
	}

	return []byte(fmt.Sprintf(docsPage, body.String())), nil
}

func handleDocs() http.HandlerFunc {
	page, err := renderDocs(apiReference)
	return func(w http.ResponseWriter, r *http.Request) {
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}
}
