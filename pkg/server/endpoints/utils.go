package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/doodlesbykumbi/keycustody/pkg/authenticator"
	"github.com/doodlesbykumbi/keycustody/pkg/keys"
	"github.com/doodlesbykumbi/keycustody/pkg/server/store"
)

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 1 << 20

// errMalformed marks request bodies that cannot be decoded or miss fields
var errMalformed = errors.New("malformed request")

func respondWithError(w http.ResponseWriter, code int, detail string) {
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	respondWithJSON(w, code, map[string]string{"detail": detail})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithServiceError maps the domain errors to their status and
// message. Anything unrecognised is logged and reported as a 500 without
// its cause.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errMalformed),
		errors.Is(err, authenticator.ErrInvalidInput),
		errors.Is(err, authenticator.ErrPasswordTooLong):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrDuplicateUsername):
		respondWithError(w, http.StatusBadRequest, "Username already exists")
	case errors.Is(err, authenticator.ErrInvalidCredentials):
		respondWithError(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, store.ErrKeyNotFound):
		respondWithError(w, http.StatusNotFound, "Key not found")
	case errors.Is(err, keys.ErrDecryptionFailed):
		respondWithError(w, http.StatusBadRequest, "Decryption failed")
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body", errMalformed)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", errMalformed)
	}
	return nil
}

func missingField(name string) error {
	return fmt.Errorf("%w: field required: %s", errMalformed, name)
}

// auditMessage is the error text recorded in audit events. Internal errors
// are not spelled out.
func auditMessage(err error) string {
	switch {
	case errors.Is(err, errMalformed),
		errors.Is(err, authenticator.ErrInvalidInput),
		errors.Is(err, authenticator.ErrPasswordTooLong),
		errors.Is(err, store.ErrDuplicateUsername),
		errors.Is(err, authenticator.ErrInvalidCredentials),
		errors.Is(err, store.ErrKeyNotFound),
		errors.Is(err, keys.ErrDecryptionFailed):
		return err.Error()
	}
	return "internal error"
}
