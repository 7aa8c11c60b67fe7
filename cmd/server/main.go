package main

import (
	"database/sql"
	"fmt"
	"net/http"

	"goji.io"
	"goji.io/pat"

	"github.com/cduffaut/crm-accounts/internal/admin"
	"github.com/cduffaut/crm-accounts/internal/auth"
	"github.com/cduffaut/crm-accounts/internal/config"
	"github.com/cduffaut/crm-accounts/internal/database"
	"github.com/cduffaut/crm-accounts/internal/email"
	"github.com/cduffaut/crm-accounts/internal/logger"
	"github.com/cduffaut/crm-accounts/internal/middleware"
	"github.com/cduffaut/crm-accounts/internal/reset"
	"github.com/cduffaut/crm-accounts/internal/session"
	"github.com/cduffaut/crm-accounts/internal/user"
)

func main() {
	// charger la config
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", true)
		bootLog.Fatal().Err(err).Msg("chargement de la configuration impossible")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	// initialiser la DB
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("connexion à la base de données impossible")
	}
	defer db.Close()

	// exec les migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("exécution des migrations impossible")
	}

	// init les repos
	userRepo := user.NewPostgresRepository(db)
	codeRepo := user.NewPostgresCodeRepository(db)

	// init les services
	emailService := email.NewService(cfg.SMTP)
	sessionManager := session.NewManager(cfg.Session.CookieName, cfg.Session.TTL)

	authService := auth.NewService(userRepo, log)
	adminService := admin.NewService(userRepo, log)
	resetService := reset.NewService(userRepo, codeRepo, emailService, log)

	// init les handlers
	authHandlers := auth.NewHandlers(authService, sessionManager)
	adminHandlers := admin.NewHandlers(adminService)
	resetHandlers := reset.NewHandlers(resetService)

	// init les middlewares
	authMiddleware := middleware.NewAuthMiddleware(sessionManager)
	csrfMiddleware := middleware.NewCSRFMiddleware(cfg.Session.CSRFCookie)

	// creation multiplexeur goji
	mux := goji.NewMux()
	mux.Use(csrfMiddleware.Protect)

	// routes publiques
	mux.HandleFunc(pat.Post("/api/login"), authHandlers.LoginHandler)
	mux.HandleFunc(pat.Post("/api/password-reset/request"), resetHandlers.RequestHandler)
	mux.HandleFunc(pat.Post("/api/password-reset/verify"), resetHandlers.VerifyHandler)
	mux.HandleFunc(pat.Post("/api/password-reset/confirm"), resetHandlers.ConfirmHandler)
	mux.HandleFunc(pat.Get("/api/health"), healthHandler(db))

	// routes protegees
	protectedMux := goji.SubMux()
	protectedMux.Use(authMiddleware.RequireAuth)
	protectedMux.HandleFunc(pat.Post("/api/logout"), authHandlers.LogoutHandler)
	protectedMux.HandleFunc(pat.Get("/api/me"), authHandlers.MeHandler)
	protectedMux.HandleFunc(pat.Post("/api/change-password"), authHandlers.ChangePasswordHandler)

	// gestion des comptes (le contrôle super_admin se fait dans le service)
	protectedMux.HandleFunc(pat.Get("/api/users"), adminHandlers.ListUsersHandler)
	protectedMux.HandleFunc(pat.Post("/api/users/create"), adminHandlers.CreateUserHandler)
	protectedMux.HandleFunc(pat.Get("/api/users/:userID"), adminHandlers.GetUserDetailHandler)
	protectedMux.HandleFunc(pat.Patch("/api/users/:userID/toggle-status"), adminHandlers.ToggleUserStatusHandler)
	protectedMux.HandleFunc(pat.Delete("/api/users/:userID/delete"), adminHandlers.DeleteUserHandler)

	// add les routes protegees au mux principal
	mux.Handle(pat.New("/*"), protectedMux)

	// start le serv
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info().Str("addr", serverAddr).Msg("serveur démarré")
	if err := http.ListenAndServe(serverAddr, mux); err != nil {
		log.Fatal().Err(err).Msg("arrêt du serveur")
	}
}

// healthHandler vérifie la vivacité du service et de la base
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"success": false, "status": "database unreachable"}`))
			return
		}
		w.Write([]byte(`{"success": true, "status": "ok"}`))
	}
}
