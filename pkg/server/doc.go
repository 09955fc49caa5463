// Package server provides the HTTP server for the custody API.
//
// It uses gorilla/mux for routing and gorilla/handlers for the access log,
// CORS and panic recovery. Every response carries an X-Request-Id.
//
// # Server Setup
//
//	srv := server.NewServer(server.Options{
//	    Authenticator: auth,
//	    Tokens:        issuer,
//	    Keys:          keyService,
//	    HealthStore:   gormstore.NewHealthStore(db),
//	    Config:        cfg,
//	}, "0.0.0.0", "8000")
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
// Routes are registered by the endpoints subpackage:
//
//   - GET /, GET /health, GET /docs
//   - POST /register, POST /token
//   - POST /generate, POST /encrypt, POST /decrypt (bearer token required)
package server
