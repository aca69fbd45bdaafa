package routes

import (
	"github.com/Dosada05/tournament-hub/handlers"
	"github.com/Dosada05/tournament-hub/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	walletHandler *handlers.WalletHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/users/me", authHandler.Me)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/upcoming", tournamentHandler.GetUpcoming)
		r.Get("/{tournamentID}", tournamentHandler.GetByID)
		r.Get("/{tournamentID}/participants", tournamentHandler.ListParticipants)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{tournamentID}/join", tournamentHandler.Join)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/wallet", walletHandler.GetWallet)
		r.Post("/wallet/deposit", walletHandler.Deposit)
		r.Post("/wallet/withdraw", walletHandler.Withdraw)
		r.Get("/transactions", walletHandler.ListTransactions)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireAdmin)

		r.Get("/deposits", adminHandler.ListPendingDeposits)
		r.Post("/transactions/{transactionID}/approve", adminHandler.ApproveDeposit)
		r.Post("/transactions/{transactionID}/reject", adminHandler.RejectTransaction)

		r.Post("/tournaments", adminHandler.CreateTournament)
		r.Post("/tournaments/{tournamentID}/banner", adminHandler.UploadBanner)
		r.Post("/tournaments/{tournamentID}/award", adminHandler.AwardPrize)
	})

	// Clients authenticate and subscribe over the socket itself.
	router.Get("/ws", webSocketHandler.ServeWs)
}
