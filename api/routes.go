package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Sets up chi router, middlewares and defines all api endpoints
func (s *Server) routes() {
	// Inject routes
	s.r = chi.NewRouter()

	// Basic CORS
	// for more ideas, see: https://developer.github.com/v3/#cross-origin-resource-sharing
	s.r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// Inject chi middleware
	// A good base middleware stack
	s.r.Use(middleware.RequestID)
	s.r.Use(middleware.RealIP)
	s.r.Use(middleware.Logger)
	s.r.Use(middleware.Recoverer)
	s.r.Use(middleware.SetHeader("Content-Type", "application/json"))
	s.r.Use(middleware.Timeout(60 * time.Second))

	s.r.Route("/v1", func(r chi.Router) {
		// health
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			JSON(w, 200, map[string]interface{}{"health_status": "online"})
		})

		// deposits
		r.Post("/deposit", s.handleDeposit)

		// rollup blocks
		r.Post("/rollup-blocks", s.handleSubmitRollupBlock)
		r.Get("/rollup-blocks/{blockNum}", s.handleGetRollupBlock)
		r.Post("/rollup-blocks/{blockNum}/challenge", s.handleChallengeBlock)
		r.Post("/rollup-blocks/{blockNum}/finalize", s.handleFinalizeBlock)
		r.Get("/rollup-blocks/{blockNum}/can-finalize", s.handleCanFinalize)
		r.Get("/rollup-blocks/{blockNum}/can-challenge", s.handleCanChallenge)

		// withdrawals
		r.Post("/withdrawals", s.handleRequestWithdrawal)
		r.Get("/withdrawals/{id}", s.handleGetWithdrawal)
		r.Post("/withdrawals/{id}/process", s.handleProcessWithdrawal)
		r.Get("/withdrawals/{id}/can-process", s.handleCanProcessWithdrawal)

		// state / balances / bonds
		r.Get("/state", s.handleGetState)
		r.Get("/balances/{address}", s.handleGetBalance)
		r.Get("/bonds/{operator}", s.handleGetBond)

		// audit log
		r.Get("/transactions", s.handleEventsGet)
	})
}
