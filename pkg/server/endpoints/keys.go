package endpoints

import (
	"errors"
	"net/http"

	"github.com/doodlesbykumbi/keycustody/pkg/audit"
	"github.com/doodlesbykumbi/keycustody/pkg/identity"
	"github.com/doodlesbykumbi/keycustody/pkg/server"
)

type encryptRequest struct {
	KeyID     *int64  `json:"key_id"`
	Plaintext *string `json:"plaintext"`
}

type decryptRequest struct {
	KeyID      *int64  `json:"key_id"`
	Ciphertext *string `json:"ciphertext"`
}

// GenerateResponse is the body of a successful POST /generate
type GenerateResponse struct {
	KeyID int64  `json:"key_id"`
	Key   string `json:"key"`
}

// RegisterKeyEndpoints registers the bearer-protected key routes
func RegisterKeyEndpoints(s *server.Server) {
	s.Router.Handle("/generate", s.Protect(handleGenerate(s.Keys))).Methods("POST")
	s.Router.Handle("/encrypt", s.Protect(handleEncrypt(s.Keys))).Methods("POST")
	s.Router.Handle("/decrypt", s.Protect(handleDecrypt(s.Keys))).Methods("POST")
}

var errNoIdentity = errors.New("no identity in request context")

func handleGenerate(keyService KeyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			respondWithServiceError(w, r, errNoIdentity)
			return
		}

		generated, err := keyService.Generate(r.Context(), id.UserID)
		if err != nil {
			logKeyEvent(id, audit.ActionGenerate, 0, err)
			respondWithServiceError(w, r, err)
			return
		}
		logKeyEvent(id, audit.ActionGenerate, generated.ID, nil)

		respondWithJSON(w, http.StatusOK, GenerateResponse{
			KeyID: generated.ID,
			Key:   generated.Material,
		})
	}
}

func handleEncrypt(keyService KeyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			respondWithServiceError(w, r, errNoIdentity)
			return
		}

		var req encryptRequest
		err := decodeJSON(r, &req)
		if err == nil {
			switch {
			case req.KeyID == nil:
				err = missingField("key_id")
			case req.Plaintext == nil:
				err = missingField("plaintext")
			}
		}
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		ciphertext, err := keyService.Encrypt(r.Context(), id.UserID, *req.KeyID, *req.Plaintext)
		logKeyEvent(id, audit.ActionEncrypt, *req.KeyID, err)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		respondWithJSON(w, http.StatusOK, map[string]string{"ciphertext": ciphertext})
	}
}

func handleDecrypt(keyService KeyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			respondWithServiceError(w, r, errNoIdentity)
			return
		}

		var req decryptRequest
		err := decodeJSON(r, &req)
		if err == nil {
			switch {
			case req.KeyID == nil:
				err = missingField("key_id")
			case req.Ciphertext == nil:
				err = missingField("ciphertext")
			}
		}
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		plaintext, err := keyService.Decrypt(r.Context(), id.UserID, *req.KeyID, *req.Ciphertext)
		logKeyEvent(id, audit.ActionDecrypt, *req.KeyID, err)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		respondWithJSON(w, http.StatusOK, map[string]string{"plaintext": plaintext})
	}
}

func logKeyEvent(id *identity.Identity, action audit.Action, keyID int64, err error) {
	event := audit.KeyEvent{
		Action:    action,
		Username:  id.Username,
		KeyID:     keyID,
		ClientIP:  id.ClientIP(),
		RequestID: id.RequestID,
		Success:   err == nil,
	}
	if err != nil {
		event.ErrorMessage = auditMessage(err)
	}
	audit.Log(event)
}
