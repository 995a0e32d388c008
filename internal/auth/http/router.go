package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/turnstile/internal/auth/service"
	"github.com/aussiebroadwan/turnstile/internal/auth/store"
	"github.com/aussiebroadwan/turnstile/pkg/httpx"
	"github.com/aussiebroadwan/turnstile/pkg/slogx"

	_ "github.com/aussiebroadwan/turnstile/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// maxBodyBytes bounds register and login bodies.
const maxBodyBytes = 64 << 10

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Credentials
	Sessions *service.SessionService
}

func NewRouter(
	sessions *service.SessionService,
	st store.Credentials,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		Sessions:     sessions,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAPI()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Turnstile Authentication API
//	@version		0.1.0
//	@description	Password registration, login and access token checks for the CRUD service.
//	@description
//	@description				Tokens are compact JWS strings signed with the configured algorithm (HS256 by default).
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/turnstile
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:3000
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAPI() {
	limited := func(h http.Handler) http.Handler {
		return httpx.Chain(h, httpx.MaxBytes(maxBodyBytes))
	}

	r.Mux.Handle("POST /api/register", limited(&RegisterHandler{Sessions: r.Sessions}))
	r.Mux.Handle("POST /api/login", limited(&LoginHandler{Sessions: r.Sessions}))
	r.Mux.Handle("GET /api/token", &TokenHandler{Sessions: r.Sessions})
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Sessions))
}
