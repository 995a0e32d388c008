package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/turnstile/pkg/authsdk"
)

// decodeCredentials reads an {"email","password"} body.
func decodeCredentials(r *http.Request) (authsdk.CredentialsRequest, bool) {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return authsdk.CredentialsRequest{}, false
	}

	var req authsdk.CredentialsRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return authsdk.CredentialsRequest{}, false
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return authsdk.CredentialsRequest{}, false
	}
	return req, true
}
