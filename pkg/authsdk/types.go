package authsdk

// CredentialsRequest is the body of POST /api/register and POST /api/login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is the (empty) body of a successful registration.
type RegisterResponse struct{}

// LoginResponse carries the access token issued on a successful login.
type LoginResponse struct {
	Token string `json:"token"`
}

// TokenResponse reports whether a presented token is valid. UserEmail is only
// set for valid tokens.
type TokenResponse struct {
	Token     string `json:"token"`
	Valid     bool   `json:"valid"`
	UserEmail string `json:"user_email,omitempty"`
}

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of the components readiness depends on.
type HealthChecks struct {
	Store  string `json:"store"`
	Signer string `json:"signer"`
}
