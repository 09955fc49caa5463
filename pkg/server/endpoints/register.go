package endpoints

import "github.com/doodlesbykumbi/keycustody/pkg/server"

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterStatusEndpoints(srv)
	RegisterAccountEndpoints(srv)
	RegisterKeyEndpoints(srv)
	RegisterDocsEndpoint(srv)
}
