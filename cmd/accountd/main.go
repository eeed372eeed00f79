package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/accountd/internal/config"
	"github.com/dropDatabas3/accountd/internal/email"
	"github.com/dropDatabas3/accountd/internal/events"
	"github.com/dropDatabas3/accountd/internal/http/controllers"
	"github.com/dropDatabas3/accountd/internal/http/router"
	"github.com/dropDatabas3/accountd/internal/metrics"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
	"github.com/dropDatabas3/accountd/internal/rate"
	"github.com/dropDatabas3/accountd/internal/security/linktoken"
	"github.com/dropDatabas3/accountd/internal/security/password"
	"github.com/dropDatabas3/accountd/internal/store"
	migrations "github.com/dropDatabas3/accountd/migrations/postgres"

	// adapters registrados via init()
	_ "github.com/dropDatabas3/accountd/internal/store/adapters/memory"
	_ "github.com/dropDatabas3/accountd/internal/store/adapters/pg"
)

var version = "dev"

func main() {
	// .env es opcional; en prod los secretos vienen del entorno real
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:     "accountd",
		Short:   "Servicio de cuentas: registro, sesiones, passwordless y webauthn",
		Version: version,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", envOr("CONFIG_PATH", "configs/config.yaml"), "ruta del YAML de configuración")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levantar el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfgPath)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplicar las migraciones de postgres embebidas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), cfgPath)
		},
	}

	root.AddCommand(serveCmd, migrateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func serve(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       envOr("LOG_LEVEL", "info"),
		ServiceName: "accountd",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		Driver:          cfg.Storage.Driver,
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	bus := events.NewBus()
	bus.Subscribe(events.UserLoginFailed, func(ctx context.Context, e events.Event) error {
		l := logger.From(ctx)
		if e.User != nil {
			l = l.With(logger.UserID(e.User.ID))
		}
		l.Warn("login failure", logger.Signal(string(e.Name)))
		return nil
	})

	codec := &linktoken.Codec{
		Secret:     []byte(cfg.SecretKey),
		MaxAge:     cfg.Auth.TokenMaxAge,
		LoginField: cfg.Auth.LoginField,
	}

	mailer := &email.Dispatcher{
		Sender:                  buildSender(cfg),
		Codec:                   codec,
		Domain:                  cfg.Email.Domain,
		SiteName:                cfg.Email.SiteName,
		Protocol:                cfg.Email.Protocol,
		ActivationURL:           cfg.Auth.ActivationURL,
		PasswordResetConfirmURL: cfg.Auth.PasswordResetConfirmURL,
		UsernameResetConfirmURL: cfg.Auth.UsernameResetConfirmURL,
		LoginField:              cfg.Auth.LoginField,
	}

	policy := password.Policy{
		MinLength:     cfg.Auth.Password.MinLength,
		RequireUpper:  cfg.Auth.Password.RequireUpper,
		RequireLower:  cfg.Auth.Password.RequireLower,
		RequireDigit:  cfg.Auth.Password.RequireDigit,
		RequireSymbol: cfg.Auth.Password.RequireSymbol,
	}

	ctrls := controllers.New(controllers.Deps{
		Store:  st,
		Cfg:    cfg,
		Bus:    bus,
		Mailer: mailer,
		Codec:  codec,
		Policy: policy,
	})

	routerDeps := router.Deps{Cfg: cfg, Store: st, Controllers: ctrls}
	if cfg.Rate.Enabled {
		client := rdb.NewClient(&rdb.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer func() { _ = client.Close() }()

		prefix := cfg.Redis.Prefix
		routerDeps.LoginLimiter = rate.NewRedisLimiter(client, prefix+"login:", cfg.Rate.Login.Limit, cfg.Rate.Login.Window)
		routerDeps.ResetLimiter = rate.NewRedisLimiter(client, prefix+"reset:", cfg.Rate.Reset.Limit, cfg.Rate.Reset.Window)
		routerDeps.PasswordlessLimiter = rate.NewRedisLimiter(client, prefix+"pless:", cfg.Rate.Passwordless.Limit, cfg.Rate.Passwordless.Window)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.New(routerDeps),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server up", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	log.Info("bye")
	return nil
}

// buildSender elige el transporte de email. Sin host SMTP configurado los
// emails se loguean en vez de enviarse.
func buildSender(cfg *config.Config) email.Sender {
	if cfg.SMTP.Host == "" {
		logger.L().Warn("smtp host not configured, emails will only be logged")
		return &email.RecordingSender{}
	}
	return &email.SMTPSender{
		Host:               cfg.SMTP.Host,
		Port:               cfg.SMTP.Port,
		From:               cfg.Email.From,
		User:               cfg.SMTP.Username,
		Pass:               cfg.SMTP.Password,
		TLSMode:            cfg.SMTP.TLS,
		InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
	}
}

// migrate aplica los .sql embebidos en orden lexicográfico. Sin tracking de
// versiones: los scripts son idempotentes (IF NOT EXISTS).
func migrate(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.Storage.Driver != "postgres" {
		return fmt.Errorf("migrate: driver %q does not use migrations", cfg.Storage.Driver)
	}

	entries, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(entries)

	conn, err := pgx.Connect(ctx, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("migrate: connect: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	for _, name := range entries {
		sql, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return err
		}
		if _, err := conn.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("migrate: %s: %w", name, err)
		}
		fmt.Printf("applied %s\n", name)
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
