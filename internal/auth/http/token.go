package http

import (
	"net/http"

	"github.com/aussiebroadwan/turnstile/internal/auth/service"
	"github.com/aussiebroadwan/turnstile/pkg/authsdk"
	"github.com/aussiebroadwan/turnstile/pkg/httpx"
	"github.com/aussiebroadwan/turnstile/pkg/jwtx"
	"github.com/aussiebroadwan/turnstile/pkg/slogx"
)

// TokenHandler serves GET /api/token.
type TokenHandler struct {
	Sessions *service.SessionService
}

// ServeHTTP godoc
//
//	@Summary		Check an access token
//	@Description	Reports whether the bearer token is valid. Invalid tokens still get 200 with valid=false;
//	@Description	user_email is only present for valid tokens.
//	@Tags			Auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.TokenResponse
//	@Failure		401	{object}	authsdk.APIError	"missing bearer token"
//	@Router			/api/token [get].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	raw, ok := httpx.BearerToken(r)
	if !ok {
		httpx.WriteBearerError(w, authsdk.ErrMissingToken.Description)
		return
	}

	status, err := h.Sessions.ValidateToken(raw)
	if err != nil {
		if !jwtx.IsInvalid(err) {
			log.Warn("token check failed", "err", err)
		} else {
			log.Debug("token rejected", "err", err)
		}
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		Token:     status.Token,
		Valid:     status.Valid,
		UserEmail: status.Subject,
	})
}
