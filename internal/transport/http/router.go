package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-otp-auth/internal/application/auth"
	"github.com/go-otp-auth/internal/config"
	"github.com/go-otp-auth/internal/transport/http/handler"
	appmiddleware "github.com/go-otp-auth/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Fixed window, small cap — only the endpoint that sends mail is limited.
	otpRL := appmiddleware.NewRateLimiter(cfg.OTPRateLimit, cfg.OTPRateWindow)

	authSvc := auth.NewService(auth.ServiceDeps{
		OTPRepo:            deps.OTPRepo,
		VerificationRepo:   deps.VerificationRepo,
		UserRepo:           deps.UserRepo,
		Mailer:             deps.Mailer,
		TokenIssuer:        deps.JWTProvider,
		OTPExpiry:          cfg.OTPExpiry,
		VerificationExpiry: cfg.VerificationExpiry,
	})

	authH := handler.NewAuthHandler(authSvc, cfg.AllowedEmailDomains)
	healthH := handler.NewHealthHandler()

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// ── Public routes ────────────────────────────────────────────────────
	r.Get("/health-check/{action}", healthH.Ping)
	r.With(otpRL.Limit).Post("/request-otp", authH.RequestOTP)
	r.Post("/verify-otp", authH.VerifyOTP)
	r.Post("/signup", authH.Signup)

	// ── Bearer-token routes ──────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(authMw)

		r.Get("/verify-token", authH.VerifyToken)
		r.Get("/protected-route", authH.Protected)
	})

	return r
}
