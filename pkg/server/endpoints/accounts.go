package endpoints

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/doodlesbykumbi/keycustody/pkg/audit"
	"github.com/doodlesbykumbi/keycustody/pkg/identity"
	"github.com/doodlesbykumbi/keycustody/pkg/server"
	"github.com/doodlesbykumbi/keycustody/pkg/server/middleware"
)

type registerRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// TokenResponse is the body of a successful POST /token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterAccountEndpoints registers POST /register and POST /token
func RegisterAccountEndpoints(s *server.Server) {
	s.Router.HandleFunc("/register", handleRegister(s.Authenticator)).Methods("POST")
	s.Router.HandleFunc("/token", handleToken(s.Authenticator, s.Tokens)).Methods("POST")
}

func handleRegister(accounts AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		err := decodeJSON(r, &req)
		if err == nil {
			switch {
			case req.Username == nil:
				err = missingField("username")
			case req.Password == nil:
				err = missingField("password")
			}
		}
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		_, err = accounts.Register(r.Context(), *req.Username, *req.Password)
		logAccountEvent(r, audit.ActionRegister, *req.Username, err)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		respondWithJSON(w, http.StatusOK, map[string]string{"message": "User registered successfully"})
	}
}

func handleToken(accounts AccountService, tokens TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, err := passwordForm(w, r)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		_, err = accounts.Authenticate(r.Context(), username, password)
		logAccountEvent(r, audit.ActionLogin, username, err)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		signed, err := tokens.Issue(username)
		if err != nil {
			respondWithServiceError(w, r, fmt.Errorf("issuing token: %w", err))
			return
		}

		respondWithJSON(w, http.StatusOK, TokenResponse{
			AccessToken: signed,
			TokenType:   "bearer",
		})
	}
}

// passwordForm reads the username and password fields of an OAuth2
// password-grant form, urlencoded or multipart.
func passwordForm(w http.ResponseWriter, r *http.Request) (string, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxBodyBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return "", "", fmt.Errorf("%w: invalid form body", errMalformed)
	}

	username, ok := r.PostForm["username"]
	if !ok || len(username) == 0 {
		return "", "", missingField("username")
	}
	password, ok := r.PostForm["password"]
	if !ok || len(password) == 0 {
		return "", "", missingField("password")
	}
	return username[0], password[0], nil
}

func logAccountEvent(r *http.Request, action audit.Action, username string, err error) {
	event := audit.AccountEvent{
		Action:    action,
		Username:  username,
		ClientIP:  clientIP(r),
		RequestID: middleware.RequestIDFromContext(r.Context()),
		Success:   err == nil,
	}
	if err != nil {
		event.ErrorMessage = auditMessage(err)
	}
	audit.Log(event)
}

func clientIP(r *http.Request) string {
	if ip := identity.ParseRemoteAddr(r.RemoteAddr); ip != nil {
		return ip.String()
	}
	return ""
}
