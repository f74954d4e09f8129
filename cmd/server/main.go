package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"household/internal/auth"
	"household/internal/config"
	"household/internal/db"
	"household/internal/handlers"
	"household/internal/logger"
	"household/internal/mailer"
	"household/internal/metrics"
	"household/internal/notify"
	"household/internal/scope"
	"household/internal/services"
	"household/internal/storage"
	"household/internal/store"
	"household/internal/sweeper"
	"household/internal/websocket"
)

// files serves stored blobs through signed links.
type files struct {
	*storage.Local
	*storage.URLSigner
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	defer database.Close()

	var cache scope.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.WithError(err).Warn("redis unavailable, session cache disabled")
		} else {
			defer rdb.Close()
			cache = scope.NewRedisCache(rdb)
			log.WithField("addr", cfg.RedisAddr).Info("session cache enabled")
		}
	}

	local, err := storage.NewLocal(cfg.StorageDir)
	if err != nil {
		log.WithError(err).Fatal("failed to prepare file storage")
	}
	blobs := files{Local: local, URLSigner: storage.NewURLSigner(cfg.SigningKey, time.Hour)}

	users := store.NewUserStore(database)
	sessions := store.NewSessionStore(database)
	families := store.NewFamilyStore(database)
	accounts := store.NewAccountStore(database)
	transactions := store.NewTransactionStore(database)
	budgets := store.NewBudgetStore(database)
	goals := store.NewGoalStore(database)
	debts := store.NewDebtStore(database)
	investments := store.NewInvestmentStore(database)
	notifications := store.NewNotificationStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database, log)

	m := metrics.New()
	hub := websocket.NewHub()
	sealer := auth.NewSealer(cfg.SecretKey)
	resolver := scope.NewResolver(sessions, users, cache, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mail := mailer.NewQueue(mailer.SMTPSender{}, cfg.MailQueueSize, log, m.MailDispatch)
	mail.Start(ctx, cfg.MailWorkers)

	notifier := notify.New(database, notifications, users, hub, mail, sealer, m, log)
	alerts := services.NewAlertService(transactions, budgets, goals, debts, notifier, m, log)
	ledger := services.NewLedgerService(services.LedgerDeps{
		TxRunner:     txRunner,
		Accounts:     accounts,
		Transactions: transactions,
		Goals:        goals,
		Debts:        debts,
		Investments:  investments,
		Users:        users,
		Audit:        audit,
		Notifier:     notifier,
		Budgets:      alerts,
		Hub:          hub,
		Metrics:      m,
		Log:          log,
	}, services.LedgerPolicy{AllowNegativeBalance: cfg.AllowNegativeBalance})
	records := services.NewRecordService(services.RecordDeps{
		TxRunner:      txRunner,
		Accounts:      accounts,
		Transactions:  transactions,
		Budgets:       budgets,
		Goals:         goals,
		Debts:         debts,
		Investments:   investments,
		Notifications: notifications,
		Audit:         audit,
		DebtAlerts:    alerts,
		Notifier:      notifier,
		Log:           log,
	})
	familyService := services.NewFamilyService(txRunner, database, families, users, audit, log)
	userService := services.NewUserService(services.UserDeps{
		TxRunner:   txRunner,
		Users:      users,
		Sessions:   sessions,
		Families:   families,
		Files:      blobs,
		URLs:       blobs,
		Sealer:     sealer,
		Resolver:   resolver,
		Log:        log,
		SessionTTL: cfg.SessionTTL,
	})

	var background sync.WaitGroup
	background.Add(1)
	go func() {
		defer background.Done()
		sweeper.New(alerts, userService, m, log, cfg.SweepInterval).Start(ctx)
	}()

	handler := handlers.New(handlers.Deps{
		Config:   cfg,
		Log:      log,
		Resolver: resolver,
		Ledger:   ledger,
		Records:  records,
		Families: familyService,
		Users:    userService,
		Files:    blobs,
		Hub:      hub,
		Metrics:  m.Handler(),
	})
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"addr": server.Addr, "env": cfg.AppEnv}).Info("household API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
	background.Wait()
	mail.Wait()
}
