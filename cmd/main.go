package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/gitKheang/library-management-system/configs"
	"github.com/gitKheang/library-management-system/internal/catalog"
	"github.com/gitKheang/library-management-system/internal/circulation"
	"github.com/gitKheang/library-management-system/internal/copypool"
	"github.com/gitKheang/library-management-system/internal/daemon"
	"github.com/gitKheang/library-management-system/internal/db"
	"github.com/gitKheang/library-management-system/internal/handlers"
	"github.com/gitKheang/library-management-system/internal/ledger"
	"github.com/gitKheang/library-management-system/internal/middleware"
	"github.com/gitKheang/library-management-system/internal/models"
	"github.com/gitKheang/library-management-system/internal/utils"
)

func main() {
	cfg := configs.LoadConfig()
	db.Connect(cfg.MongoURI)
	utils.InitJwtSecret(cfg.JWTSecret, cfg.TokenTTLHours)

	bookCol := db.GetCollection(cfg.DBName, "books")
	copyCol := db.GetCollection(cfg.DBName, "bookCopies")
	loanCol := db.GetCollection(cfg.DBName, "loans")
	userCol := db.GetCollection(cfg.DBName, "users")
	auditCol := db.GetCollection(cfg.DBName, "audit_logs")

	auditLogger := utils.Logger{Collection: auditCol}

	pool := copypool.NewMongoPool(copyCol)
	ldg := ledger.NewMongoLedger(loanCol, bookCol, copyCol, userCol)
	svc := circulation.NewService(pool, ldg, catalog.NewMongoBooks(bookCol), catalog.NewMongoUsers(userCol))

	r := mux.NewRouter()
	r.Use(middleware.JSONMiddleware)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status":"ok","timestamp":%q}`, time.Now().Format(time.RFC3339))
	})

	api := r.PathPrefix("/api").Subrouter()

	authHandler := &handlers.AuthHandler{UserCol: userCol, AuditLogger: auditLogger}
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	bookHandler := handlers.NewBookHandler(bookCol, pool, svc, auditLogger)
	api.HandleFunc("/books/categories", bookHandler.GetCategories).Methods("GET")
	api.HandleFunc("/books", bookHandler.GetBooks).Methods("GET")

	userHandler := handlers.NewUserHandler(userCol, svc, auditLogger)
	api.HandleFunc("/users/request-password-reset", userHandler.RequestPasswordReset).Methods("POST")

	authed := api.PathPrefix("/").Subrouter()
	authed.Use(middleware.JWTAuthMiddleware)

	authed.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	authed.HandleFunc("/books/available-for-loans", bookHandler.GetAvailableForLoans).Methods("GET")

	// Registered after /books/categories and /books/available-for-loans so
	// those literal paths are matched first.
	api.HandleFunc("/books/{id}", bookHandler.GetBook).Methods("GET")

	loanHandler := handlers.NewLoanHandler(svc, auditLogger)
	authed.HandleFunc("/loans/user/{userId}", loanHandler.GetLoansForUser).Methods("GET")

	staff := api.PathPrefix("/admin").Subrouter()
	staff.Use(middleware.JWTAuthMiddleware)
	staff.Use(middleware.RequireRole(models.RoleAdmin, models.RoleStaff))

	staff.HandleFunc("/books", bookHandler.GetAdminBooks).Methods("GET")
	staff.HandleFunc("/books", bookHandler.CreateBook).Methods("POST")
	staff.HandleFunc("/books/{id}", bookHandler.UpdateBook).Methods("PUT")
	staff.HandleFunc("/books/{id}", bookHandler.DeleteBook).Methods("DELETE")

	copyHandler := &handlers.CopyHandler{Pool: pool, AuditLogger: auditLogger}
	staff.HandleFunc("/books/{id}/copies", copyHandler.GetCopies).Methods("GET")
	staff.HandleFunc("/copies/{id}", copyHandler.UpdateCopyStatus).Methods("PATCH")

	staff.HandleFunc("/loans", loanHandler.GetAdminLoans).Methods("GET")
	staff.HandleFunc("/loans", loanHandler.CreateLoan).Methods("POST")
	staff.HandleFunc("/loans/{id}/return", loanHandler.ReturnLoan).Methods("POST")
	staff.HandleFunc("/loans/{id}/remind", loanHandler.SendReminder).Methods("POST")

	dashboardHandler := &handlers.DashboardHandler{Svc: svc}
	staff.HandleFunc("/dashboard", dashboardHandler.GetDashboard).Methods("GET")

	staff.HandleFunc("/users", userHandler.GetAdminUsers).Methods("GET")
	staff.HandleFunc("/users/{id}", userHandler.DeleteUser).Methods("DELETE")
	staff.HandleFunc("/users/{id}/reset-password", userHandler.ResetUserPassword).Methods("POST")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.JWTAuthMiddleware)
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.HandleFunc("/users/staff", userHandler.CreateStaff).Methods("POST")

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	sweeper := daemon.ReminderSweeper{
		Svc:      svc,
		Interval: time.Duration(cfg.ReminderSweepMinutes) * time.Minute,
	}
	sweeper.Start(sweepCtx)

	server := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Infof("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	log.Info("Shutting down gracefully...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}
	if err := db.Disconnect(ctx); err != nil {
		log.Errorf("MongoDB disconnect failed: %v", err)
	}
	log.Info("Server shut down.")
}
