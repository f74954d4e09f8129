package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"household/internal/config"
	"household/internal/middleware"
	"household/internal/models"
	"household/internal/websocket"
)

type Deps struct {
	Config   config.Config
	Log      logrus.FieldLogger
	Resolver middleware.Resolver
	Ledger   LedgerService
	Records  RecordService
	Families FamilyService
	Users    UserService
	Files    FileServer
	Hub      *websocket.Hub
	Metrics  http.Handler
}

type Handler struct {
	cfg      config.Config
	log      logrus.FieldLogger
	resolver middleware.Resolver
	ledger   LedgerService
	records  RecordService
	families FamilyService
	users    UserService
	files    FileServer
	hub      *websocket.Hub
	metrics  http.Handler
}

func New(deps Deps) *Handler {
	return &Handler{
		cfg:      deps.Config,
		log:      deps.Log,
		resolver: deps.Resolver,
		ledger:   deps.Ledger,
		records:  deps.Records,
		families: deps.Families,
		users:    deps.Users,
		files:    deps.Files,
		hub:      deps.Hub,
		metrics:  deps.Metrics,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestLogger(h.log))
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(h.cfg.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.Identify(h.resolver, h.log))

	authed := middleware.RequireIdentity

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	router.Route("/me", func(r chi.Router) {
		r.Use(authed)
		r.Get("/", h.Me)
		r.Put("/", h.UpdateProfile)
		r.Put("/avatar", h.UploadAvatar)
		r.Put("/smtp", h.UpdateSMTP)
		r.Post("/deletion", h.ScheduleDeletion)
		r.Delete("/deletion", h.CancelDeletion)
	})
	router.Get("/files/{handle}", h.ServeFile)

	router.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.ListAccounts)
		r.With(authed).Post("/", h.CreateAccount)
		r.With(authed).Put("/{id}", h.UpdateAccount)
		r.With(authed).Delete("/{id}", h.DeleteAccount)
	})

	router.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.ListTransactions)
		r.Get("/export.xlsx", h.ExportTransactions)
		r.With(authed).Post("/", h.CreateTransaction)
		r.With(authed).Post("/transfer", h.Transfer)
		r.With(authed).Put("/{id}", h.UpdateTransaction)
		r.With(authed).Delete("/{id}", h.DeleteTransaction)
	})

	router.Route("/budgets", func(r chi.Router) {
		r.Get("/", h.ListBudgets)
		r.Get("/status", h.BudgetStatuses)
		r.With(authed).Post("/", h.CreateBudget)
		r.With(authed).Put("/{id}", h.UpdateBudget)
		r.With(authed).Delete("/{id}", h.DeleteBudget)
	})

	router.Route("/goals", func(r chi.Router) {
		r.Get("/", h.ListGoals)
		r.With(authed).Post("/", h.CreateGoal)
		r.With(authed).Put("/{id}", h.UpdateGoal)
		r.With(authed).Delete("/{id}", h.DeleteGoal)
		r.With(authed).Post("/{id}/deposit", h.DepositGoal)
	})

	router.Route("/debts", func(r chi.Router) {
		r.Get("/", h.ListDebts)
		r.With(authed).Post("/", h.CreateDebt)
		r.With(authed).Put("/{id}", h.UpdateDebt)
		r.With(authed).Delete("/{id}", h.DeleteDebt)
		r.With(authed).Post("/{id}/payments", h.PayDebt)
	})

	router.Route("/investments", func(r chi.Router) {
		r.Get("/", h.ListInvestments)
		r.With(authed).Post("/", h.CreateInvestment)
		r.With(authed).Put("/{id}", h.UpdateInvestment)
		r.With(authed).Delete("/{id}", h.DeleteInvestment)
		r.With(authed).Post("/{id}/sell", h.SellInvestment)
	})

	router.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.ListNotifications)
		r.With(authed).Post("/read-all", h.MarkAllNotificationsRead)
		r.With(authed).Post("/{id}/read", h.MarkNotificationRead)
		r.With(authed).Delete("/{id}", h.DeleteNotification)
	})

	router.Get("/activity", h.ListActivity)

	router.Route("/family", func(r chi.Router) {
		r.Use(authed)
		r.Get("/", h.GetFamily)
		r.Post("/", h.CreateFamily)
		r.Post("/join", h.JoinFamily)
		r.Post("/leave", h.LeaveFamily)
		r.Get("/members", h.ListFamilyMembers)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireFamilyRole(models.RoleAdmin))
			r.Put("/members/{userID}/role", h.SetFamilyRole)
			r.Post("/transfer-admin", h.TransferFamilyAdmin)
		})
	})

	router.With(middleware.IdentifyQueryToken(h.resolver, h.log), authed).Get("/ws", h.WSUpdates)
	if h.metrics != nil {
		router.Handle("/metrics", h.metrics)
	}
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
