package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"jungle/core"
	"jungle/core/events"
	"jungle/gateway/middleware"
	"jungle/storage/eventlog"
)

// MintScope is required on tokens calling the bank mint route.
const MintScope = "bank:mint"

type Config struct {
	Node          *core.Node
	EventLog      *eventlog.Store
	Stream        *events.Hub
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
	Logger        *slog.Logger
	// AllowMint mounts the bank mint route.
	AllowMint bool
}

type handlers struct {
	node   *core.Node
	events *eventlog.Store
	stream *events.Hub
	logger *slog.Logger
}

// New builds the HTTP API over a node.
func New(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{node: cfg.Node, events: cfg.EventLog, stream: cfg.Stream, logger: logger}
	auth := cfg.Authenticator
	if auth == nil {
		auth = middleware.NewAuthenticator(middleware.AuthConfig{}, nil)
	}
	obs := cfg.Observability
	if obs == nil {
		obs = middleware.NewObservability("", nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	module := func(name string, mount func(chi.Router)) {
		r.Group(func(sr chi.Router) {
			sr.Use(obs.Middleware(name))
			sr.Use(auth.Middleware())
			sr.Use(cfg.RateLimiter.Middleware(name))
			mount(sr)
		})
	}
	module("jungle", h.mountJungle)
	module("lottery", h.mountLottery)
	module("bank", h.mountBank)
	module("events", h.mountEvents)

	if cfg.AllowMint {
		r.Group(func(sr chi.Router) {
			sr.Use(obs.Middleware("bank"))
			sr.Use(auth.Middleware(MintScope))
			sr.Post("/v1/bank/mint", h.mint)
		})
	}
	return r
}
