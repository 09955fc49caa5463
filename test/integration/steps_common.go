package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cucumber/godog"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	authToken    string
	username     string
	keyIDs       map[string]int64
	ciphertext   string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:     tc,
		keyIDs: make(map[string]int64),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	// Background steps
	sc.Step(`^a custody server is running$`, s.aCustodyServerIsRunning)
	sc.Step(`^a user "([^"]*)" with password "([^"]*)" exists$`, s.aUserWithPasswordExists)
	sc.Step(`^I am logged in as "([^"]*)" with password "([^"]*)"$`, s.iAmLoggedInAs)

	// Account steps
	sc.Step(`^I register user "([^"]*)" with password "([^"]*)"$`, s.iRegisterUser)
	sc.Step(`^I send the register body:$`, s.iSendTheRegisterBody)
	sc.Step(`^I request a token for "([^"]*)" with password "([^"]*)"$`, s.iRequestAToken)

	// Key steps
	sc.Step(`^I generate a key named "([^"]*)"$`, s.iGenerateAKeyNamed)
	sc.Step(`^I encrypt "([^"]*)" with key "([^"]*)"$`, s.iEncryptWithKey)
	sc.Step(`^I decrypt the ciphertext with key "([^"]*)"$`, s.iDecryptTheCiphertextWithKey)
	sc.Step(`^I decrypt "([^"]*)" with key "([^"]*)"$`, s.iDecryptWithKey)
	sc.Step(`^the stored material of key "([^"]*)" should be wrapped$`, s.theStoredMaterialOfKeyShouldBeWrapped)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.theResponseFieldShouldBe)
	sc.Step(`^the response should have a "([^"]*)" header$`, s.theResponseShouldHaveHeader)
	sc.Step(`^I request "([^"]*)"$`, s.iRequest)

	// Token steps
	sc.Step(`^I should receive a valid bearer token for "([^"]*)"$`, s.iShouldReceiveAValidBearerTokenFor)
	sc.Step(`^I use an expired token for "([^"]*)"$`, s.iUseAnExpiredTokenFor)
	sc.Step(`^I use a token for "([^"]*)" signed with another secret$`, s.iUseATokenSignedWithAnotherSecret)
	sc.Step(`^I use a tampered copy of my token claiming "([^"]*)"$`, s.iUseATamperedCopyOfMyToken)
	sc.Step(`^I use no token$`, s.iUseNoToken)
}

// Background steps

func (s *StepsContext) aCustodyServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

func (s *StepsContext) aUserWithPasswordExists(username, password string) error {
	if err := s.iRegisterUser(username, password); err != nil {
		return err
	}
	// Earlier scenarios may have registered the same user already.
	if s.response.StatusCode != http.StatusOK && s.response.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("register %s: status %d: %s", username, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) iAmLoggedInAs(username, password string) error {
	if err := s.iRequestAToken(username, password); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusOK {
		return fmt.Errorf("login %s: status %d: %s", username, s.response.StatusCode, string(s.responseBody))
	}
	return s.iShouldReceiveAValidBearerTokenFor(username)
}

// Account steps

func (s *StepsContext) iRegisterUser(username, password string) error {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return err
	}
	return s.do("POST", "/register", "application/json", bytes.NewReader(body))
}

func (s *StepsContext) iSendTheRegisterBody(body *godog.DocString) error {
	return s.do("POST", "/register", "application/json", strings.NewReader(body.Content))
}

func (s *StepsContext) iRequestAToken(username, password string) error {
	form := url.Values{"username": {username}, "password": {password}}
	return s.do("POST", "/token", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

// Key steps

func (s *StepsContext) iGenerateAKeyNamed(name string) error {
	if err := s.do("POST", "/generate", "", nil); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusOK {
		return nil
	}

	var out struct {
		KeyID int64  `json:"key_id"`
		Key   string `json:"key"`
	}
	if err := json.Unmarshal(s.responseBody, &out); err != nil {
		return fmt.Errorf("invalid generate response: %w", err)
	}
	if out.KeyID == 0 || out.Key == "" {
		return fmt.Errorf("generate response missing key_id or key: %s", string(s.responseBody))
	}
	s.keyIDs[name] = out.KeyID
	return nil
}

func (s *StepsContext) keyID(name string) (int64, error) {
	id, ok := s.keyIDs[name]
	if !ok {
		return 0, fmt.Errorf("no key named %q was generated in this scenario", name)
	}
	return id, nil
}

func (s *StepsContext) iEncryptWithKey(plaintext, name string) error {
	id, err := s.keyID(name)
	if err != nil {
		return err
	}
	if err := s.postJSON("/encrypt", map[string]interface{}{"key_id": id, "plaintext": plaintext}); err != nil {
		return err
	}

	var out struct {
		Ciphertext string `json:"ciphertext"`
	}
	if s.response.StatusCode == http.StatusOK {
		if err := json.Unmarshal(s.responseBody, &out); err != nil {
			return err
		}
		s.ciphertext = out.Ciphertext
	}
	return nil
}

func (s *StepsContext) iDecryptTheCiphertextWithKey(name string) error {
	return s.iDecryptWithKey(s.ciphertext, name)
}

func (s *StepsContext) iDecryptWithKey(ciphertext, name string) error {
	id, err := s.keyID(name)
	if err != nil {
		return err
	}
	return s.postJSON("/decrypt", map[string]interface{}{"key_id": id, "ciphertext": ciphertext})
}

func (s *StepsContext) theStoredMaterialOfKeyShouldBeWrapped(name string) error {
	id, err := s.keyID(name)
	if err != nil {
		return err
	}

	var raw struct {
		KeyMaterial string
		Wrapped     bool
	}
	if err := s.tc.DB.Raw("SELECT key_material, wrapped FROM keys WHERE id = ?", id).Scan(&raw).Error; err != nil {
		return err
	}
	if !raw.Wrapped {
		return fmt.Errorf("key %d is stored in clear", id)
	}
	return nil
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseFieldShouldBe(field, expected string) error {
	var out map[string]interface{}
	if err := json.Unmarshal(s.responseBody, &out); err != nil {
		return fmt.Errorf("response is not JSON: %s", string(s.responseBody))
	}
	got, ok := out[field]
	if !ok {
		return fmt.Errorf("response has no field %q: %s", field, string(s.responseBody))
	}
	if fmt.Sprint(got) != expected {
		return fmt.Errorf("expected %s=%q, got %q", field, expected, fmt.Sprint(got))
	}
	return nil
}

func (s *StepsContext) theResponseShouldHaveHeader(name string) error {
	if s.response.Header.Get(name) == "" {
		return fmt.Errorf("response has no %s header", name)
	}
	return nil
}

func (s *StepsContext) iRequest(path string) error {
	return s.do("GET", path, "", nil)
}

// HTTP helpers

func (s *StepsContext) postJSON(path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.do("POST", path, "application/json", bytes.NewReader(body))
}

func (s *StepsContext) do(method, path, contentType string, body io.Reader) error {
	req, err := http.NewRequest(method, s.tc.ServerURL()+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	s.response = resp
	s.responseBody, err = io.ReadAll(resp.Body)
	return err
}
