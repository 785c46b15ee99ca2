package docs

import (
	_ "embed"
	"net/http"
)

//go:embed doc.json
var doc []byte

// ServeDoc writes the OpenAPI document read by the swagger UI.
func ServeDoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}
