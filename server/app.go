package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"atrium/config"
	"atrium/internal/admin"
	"atrium/internal/audit"
	"atrium/internal/db"
	"atrium/internal/health"
	"atrium/internal/hierarchy"
	"atrium/internal/impact"
	"atrium/internal/invites"
	"atrium/internal/lifecycle"
	"atrium/internal/logs"
	"atrium/internal/middleware"
	"atrium/internal/models"
	"atrium/internal/rbac"
	"atrium/internal/repo"
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	Router     *mux.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	/* 2) DB */
	if drv := a.cfg.Database.Driver; drv != "" {
		d, err := db.Open(drv, a.cfg.Database.DSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		a.db = d

		if err := a.db.AutoMigrate(
			&models.Organization{},
			&models.User{},
			&models.Member{},
			&models.Role{},
			&models.Permission{},
			&models.RolePermission{},
			&models.Invitation{},
			&models.Session{},
			&models.AuditLog{},
		); err != nil {
			log.Fatalf("db migrate failed: %v", err)
		}
		// каталог прав — один раз при старте, идемпотентно
		if err := rbac.SeedCatalog(a.db); err != nil {
			log.Fatalf("permission catalog seed failed: %v", err)
		}
	}

	/* 3) Router + middleware */
	a.Router = mux.NewRouter().StrictSlash(true)
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
	)

	/* 4) Health */
	if a.db != nil {
		health.RegisterRoutesWithDB(a.Router, a.db) // /healthz, /readyz
	} else {
		health.RegisterRoutes(a.Router) // только /healthz
	}

	/* 5) Доменные сервисы + админ-API (только при наличии БД) */
	if a.db != nil {
		orgs := repo.NewOrgStore(a.db)
		users := repo.NewUserStore(a.db)
		members := repo.NewMemberStore(a.db)
		audits := repo.NewAuditStore(a.db)
		invStore := repo.NewInvitationStore(a.db)

		resolver := rbac.NewResolver(a.db)
		hier := hierarchy.New(orgs, a.cfg.Tenancy.MaxOrgDepth)
		emitter := audit.NewEmitter(audits)

		engine := lifecycle.NewEngine(a.db, orgs, users, resolver, hier, emitter, a.cfg.Tenancy.PurgeGraceDays)
		// last-owner/last-superadmin — check-then-act; гонки закрываем
		// сериализуемыми транзакциями мутаций
		engine.TxOptions = &sql.TxOptions{Isolation: sql.LevelSerializable}

		admin.Attach(a.Router, admin.Dependencies{
			DB:       a.db,
			CFG:      a.cfg,
			Engine:   engine,
			Orgs:     orgs,
			Users:    users,
			Members:  members,
			Audit:    audits,
			Resolver: resolver,
			Hier:     hier,
			Impact:   impact.NewEstimator(a.db, orgs, hier),
			Invites:  invites.New(a.db, invStore, emitter, a.cfg.Tenancy.InvitationTTLHours),
		})
	}

	/* (необязательно) вывести известные маршруты в лог при старте */
	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		log.Printf("route: %-6v %s", methods, path)
		return nil
	})
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	// Жёсткие таймауты — это важно для production
	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Logger.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	return nil
}
