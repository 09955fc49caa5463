package endpoints

import (
	"log"
	"net/http"

	"github.com/doodlesbykumbi/keycustody/pkg/server"
	"github.com/doodlesbykumbi/keycustody/pkg/server/store"
)

// RootMessage is returned by GET /
const RootMessage = "Welcome to the Secure Key Management API"

// RegisterStatusEndpoints registers the root and health endpoints
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/", handleRoot()).Methods("GET")
	s.Router.HandleFunc("/health", handleHealth(s.HealthStore)).Methods("GET")
}

func handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"message": RootMessage})
	}
}

func handleHealth(healthStore store.HealthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := healthStore.CheckConnectivity(r.Context()); err != nil {
			log.Printf("health check failed: %v", err)
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "error",
				"detail": "database connectivity check failed",
			})
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
