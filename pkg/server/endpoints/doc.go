// Package endpoints implements the HTTP handlers of the custody API.
//
// Each file registers one group of routes on a [server.Server]. Handlers are
// built by factories that take only the services they call, so they can be
// tested with mocks:
//
//	s.Router.HandleFunc("/register", handleRegister(s.Authenticator)).Methods("POST")
//
// Domain errors are mapped to status codes in one place, respondWithServiceError.
package endpoints
