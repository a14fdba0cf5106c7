package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/telehealth-portal/internal/appointments"
	"github.com/wolfman30/telehealth-portal/internal/auth"
	httpmiddleware "github.com/wolfman30/telehealth-portal/internal/http/middleware"
	"github.com/wolfman30/telehealth-portal/internal/medications"
	"github.com/wolfman30/telehealth-portal/internal/notify"
	"github.com/wolfman30/telehealth-portal/internal/symptoms"
	"github.com/wolfman30/telehealth-portal/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AuthHandler         *auth.Handler
	SessionLoader       httpmiddleware.IdentityLoader
	AppointmentsHandler *appointments.Handler
	NotifyHandler       *notify.Handler
	MedicationsHandler  *medications.Handler
	SymptomsHandler     *symptoms.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// Per-IP limit for the credential endpoints. Zero disables it.
	RateLimitRPS   float64
	RateLimitBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.SessionLoader != nil {
		r.Use(httpmiddleware.Session(cfg.SessionLoader, cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.AuthHandler != nil {
		// One bucket per IP across every endpoint that checks a password.
		credsLimit := func(next http.Handler) http.Handler { return next }
		if cfg.RateLimitRPS > 0 {
			credsLimit = httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)
		}
		r.Route("/auth", func(ar chi.Router) {
			ar.Group(func(creds chi.Router) {
				creds.Use(credsLimit)
				creds.Post("/signup", cfg.AuthHandler.SignUp)
				creds.Post("/signin", cfg.AuthHandler.SignIn)
			})
			ar.Post("/signout", cfg.AuthHandler.SignOut)
			ar.Get("/session", cfg.AuthHandler.Session)
			ar.Get("/session/events", cfg.AuthHandler.SessionEvents)
		})
		r.Route("/profile", func(pr chi.Router) {
			pr.Patch("/", cfg.AuthHandler.UpdateProfile)
			pr.With(credsLimit).Post("/password", cfg.AuthHandler.UpdatePassword)
		})
	}

	if cfg.AppointmentsHandler != nil {
		r.Mount("/appointments", cfg.AppointmentsHandler.Routes())
	}
	if cfg.MedicationsHandler != nil {
		r.Mount("/medications", cfg.MedicationsHandler.Routes())
	}
	if cfg.NotifyHandler != nil {
		r.Post("/notifications/send", cfg.NotifyHandler.Send)
	}
	if cfg.SymptomsHandler != nil {
		r.Post("/symptoms/check", cfg.SymptomsHandler.Check)
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
