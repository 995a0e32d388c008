package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/turnstile/internal/auth/service"
	"github.com/aussiebroadwan/turnstile/pkg/authsdk"
	"github.com/aussiebroadwan/turnstile/pkg/httpx"
	"github.com/aussiebroadwan/turnstile/pkg/slogx"
)

// RegisterHandler serves POST /api/register.
type RegisterHandler struct {
	Sessions *service.SessionService
}

// ServeHTTP godoc
//
//	@Summary		Register a credential
//	@Description	Creates a password credential for an e-mail address. Each address can register once.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.CredentialsRequest	true	"email and password"
//	@Success		200		{object}	authsdk.RegisterResponse
//	@Failure		400		{object}	authsdk.APIError	"invalid_request"
//	@Failure		409		{object}	authsdk.APIError	"duplicate_identity"
//	@Failure		500		{object}	authsdk.APIError	"server_error"
//	@Router			/api/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	req, ok := decodeCredentials(r)
	if !ok {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	err := h.Sessions.Register(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, authsdk.RegisterResponse{})
	case errors.Is(err, service.ErrDuplicateIdentity):
		authsdk.ErrDuplicateIdentity.WriteError(w)
	case errors.Is(err, service.ErrInvalidRequest):
		authsdk.ErrInvalidRequest.WriteError(w)
	default:
		log.Error("register failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}
