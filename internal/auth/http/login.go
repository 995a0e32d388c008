package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/turnstile/internal/auth/service"
	"github.com/aussiebroadwan/turnstile/pkg/authsdk"
	"github.com/aussiebroadwan/turnstile/pkg/httpx"
	"github.com/aussiebroadwan/turnstile/pkg/slogx"
)

// LoginHandler serves POST /api/login.
type LoginHandler struct {
	Sessions *service.SessionService
}

// ServeHTTP godoc
//
//	@Summary		Log in
//	@Description	Verifies an e-mail and password and returns a signed access token.
//	@Description	Unknown addresses and wrong passwords get the same 401 response.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.CredentialsRequest	true	"email and password"
//	@Success		200		{object}	authsdk.LoginResponse
//	@Failure		401		{object}	authsdk.APIError	"invalid_credentials"
//	@Failure		500		{object}	authsdk.APIError	"server_error"
//	@Header			200		{string}	Cache-Control	"no-store"
//	@Router			/api/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	// A malformed body is answered like a failed login.
	req, ok := decodeCredentials(r)
	if !ok {
		authsdk.ErrInvalidCredentials.WriteError(w)
		return
	}

	token, err := h.Sessions.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{Token: token})
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
	default:
		log.Error("login failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}
