package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/MarkoPoloResearchLab/cargo/internal/grpcserver"
	"github.com/MarkoPoloResearchLab/cargo/internal/httpapi"
	"github.com/MarkoPoloResearchLab/cargo/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/cargo/internal/store/migrations"
	"github.com/MarkoPoloResearchLab/cargo/pkg/cargo"
	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	flagDatabaseURL       = "database-url"
	flagListenAddr        = "listen-addr"
	flagGRPCListenAddr    = "grpc-listen-addr"
	flagAllowedOrigins    = "allowed-origins"
	flagCompanyAccount    = "company-account"
	flagPostingMode       = "posting-mode"
	flagRequestTimeout    = "request-timeout"
	flagHealthInterval    = "health-interval"
	flagSessionSigningKey = "session-signing-key"
	flagSessionIssuer     = "session-issuer"
	flagSessionCookie     = "session-cookie"
	flagEnvFile           = "env-file"

	envPrefix = "CARGO"

	driverPostgres = "postgres"
	driverSQLite   = "sqlite"

	defaultDatabaseURL    = "sqlite://cargo.db"
	defaultListenAddr     = ":8080"
	defaultAllowedOrigins = "http://localhost:8000"
	defaultCompanyAccount = "Company"
	defaultRequestTimeout = 10 * time.Second
	defaultHealthInterval = 15 * time.Second
	defaultEnvFile        = ".env"
	defaultSQLiteFile     = "cargo.db"
	sqlitePragmas         = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
)

type runtimeConfig struct {
	DatabaseURL       string
	ListenAddr        string
	GRPCListenAddr    string
	AllowedOrigins    []string
	CompanyAccount    string
	PostingMode       string
	RequestTimeout    time.Duration
	HealthInterval    time.Duration
	SessionSigningKey string
	SessionIssuer     string
	SessionCookieName string
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cargod: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &runtimeConfig{}
	cmd := &cobra.Command{
		Use:           "cargod",
		Short:         "Cargo back office HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("logger init: %w", err)
			}
			defer func() { _ = logger.Sync() }()
			return runServer(ctx, cfg, logger)
		},
	}

	cmd.Flags().String(flagDatabaseURL, defaultDatabaseURL, "sqlite://path, bare sqlite path, or postgres:// connection string")
	cmd.Flags().String(flagListenAddr, defaultListenAddr, "HTTP listen address")
	cmd.Flags().String(flagGRPCListenAddr, "", "gRPC health listen address (disabled when empty)")
	cmd.Flags().String(flagAllowedOrigins, defaultAllowedOrigins, "comma-separated CORS origins")
	cmd.Flags().String(flagCompanyAccount, defaultCompanyAccount, "ledger account credited by invoice postings")
	cmd.Flags().String(flagPostingMode, string(cargo.PostingDoubleEntry), "default invoice posting: double_entry or daybook")
	cmd.Flags().Duration(flagRequestTimeout, defaultRequestTimeout, "per-request store timeout")
	cmd.Flags().Duration(flagHealthInterval, defaultHealthInterval, "gRPC health store ping interval")
	cmd.Flags().String(flagSessionSigningKey, "", "TAuth session signing key (auth disabled when empty)")
	cmd.Flags().String(flagSessionIssuer, "tauth", "TAuth session issuer")
	cmd.Flags().String(flagSessionCookie, "app_session", "TAuth session cookie name")
	cmd.Flags().String(flagEnvFile, defaultEnvFile, "optional dotenv file loaded before reading the environment")

	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *runtimeConfig) error {
	envFile, err := cmd.Flags().GetString(flagEnvFile)
	if err != nil {
		return err
	}
	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	settings := viper.New()
	settings.SetEnvPrefix(envPrefix)
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	if err := settings.BindEnv(flagDatabaseURL, "CARGO_DATABASE_URL", "DATABASE_URL"); err != nil {
		return err
	}
	if err := settings.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	cfg.DatabaseURL = strings.TrimSpace(settings.GetString(flagDatabaseURL))
	cfg.ListenAddr = strings.TrimSpace(settings.GetString(flagListenAddr))
	cfg.GRPCListenAddr = strings.TrimSpace(settings.GetString(flagGRPCListenAddr))
	cfg.AllowedOrigins = httpapi.ParseAllowedOrigins(settings.GetString(flagAllowedOrigins))
	cfg.CompanyAccount = settings.GetString(flagCompanyAccount)
	cfg.PostingMode = settings.GetString(flagPostingMode)
	cfg.RequestTimeout = settings.GetDuration(flagRequestTimeout)
	cfg.HealthInterval = settings.GetDuration(flagHealthInterval)
	cfg.SessionSigningKey = settings.GetString(flagSessionSigningKey)
	cfg.SessionIssuer = settings.GetString(flagSessionIssuer)
	cfg.SessionCookieName = settings.GetString(flagSessionCookie)

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database url is required")
	}
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen addr is required")
	}
	if _, err := cargo.ParsePostingMode(cfg.PostingMode); err != nil {
		return err
	}
	if _, err := cargo.NewPartyName(cfg.CompanyAccount); err != nil {
		return fmt.Errorf("company account: %w", err)
	}
	return nil
}

func loadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("env file %s: %w", path, err)
	}
	return nil
}

func runServer(ctx context.Context, cfg *runtimeConfig, logger *zap.Logger) error {
	gormDB, cleanup, driver, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer cleanup()

	if err := prepareSchema(ctx, gormDB, driver, cfg.DatabaseURL, logger); err != nil {
		return err
	}

	service, err := newCargoService(gormstore.New(gormDB), cfg, logger)
	if err != nil {
		return err
	}

	httpConfig := httpapi.Config{
		ListenAddr:        cfg.ListenAddr,
		AllowedOrigins:    cfg.AllowedOrigins,
		RequestTimeout:    cfg.RequestTimeout,
		SessionSigningKey: cfg.SessionSigningKey,
		SessionIssuer:     cfg.SessionIssuer,
		SessionCookieName: cfg.SessionCookieName,
	}

	var grpcListener net.Listener
	if cfg.GRPCListenAddr != "" {
		grpcListener, err = net.Listen("tcp", cfg.GRPCListenAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return httpapi.Run(groupCtx, httpConfig, service, logger)
	})
	if grpcListener != nil {
		reporter := grpcserver.NewHealthReporter(service, cfg.HealthInterval, logger)
		grpcServer := grpc.NewServer()
		reporter.Register(grpcServer)
		group.Go(func() error {
			reporter.Watch(groupCtx)
			return nil
		})
		group.Go(func() error {
			return grpcserver.Serve(groupCtx, grpcListener, grpcServer, logger)
		})
	}
	return group.Wait()
}

func newCargoService(store cargo.Store, cfg *runtimeConfig, logger *zap.Logger) (*cargo.Service, error) {
	companyAccount, err := cargo.NewPartyName(cfg.CompanyAccount)
	if err != nil {
		return nil, fmt.Errorf("company account: %w", err)
	}
	postingMode, err := cargo.ParsePostingMode(cfg.PostingMode)
	if err != nil {
		return nil, err
	}
	options := []cargo.ServiceOption{
		cargo.WithOperationLogger(httpapi.NewZapOperationLogger(logger)),
		cargo.WithCompanyAccount(companyAccount),
	}
	if postingMode != "" {
		options = append(options, cargo.WithPostingMode(postingMode))
	}
	clock := func() int64 { return time.Now().UTC().Unix() }
	service, err := cargo.NewService(store, clock, options...)
	if err != nil {
		return nil, fmt.Errorf("cargo service init: %w", err)
	}
	return service, nil
}

func openDatabase(ctx context.Context, dsn string) (*gorm.DB, func() error, string, error) {
	driver, sqlitePath, err := resolveDriver(dsn)
	if err != nil {
		return nil, nil, "", err
	}

	var db *gorm.DB
	cfg := &gorm.Config{}
	switch driver {
	case driverPostgres:
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	case driverSQLite:
		db, err = gorm.Open(sqlite.Open(sqliteDSN(sqlitePath)), cfg)
	default:
		return nil, nil, "", fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, "", err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, "", err
	}
	if driver == driverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, driver, nil
}

func resolveDriver(dsn string) (string, string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return driverPostgres, "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := u.Host + u.Path
		if path == "" || path == "/" {
			path = defaultSQLiteFile
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return driverSQLite, sqlitePath, err
	}
	// Treat everything else as a direct sqlite path.
	sqlitePath, err := normalizeSQLitePath(dsn)
	return driverSQLite, sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if strings.HasPrefix(path, "/") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, nil
	}
	abs := filepath.Join(".", path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

func sqliteDSN(path string) string {
	return path + "?" + sqlitePragmas
}

func prepareSchema(ctx context.Context, db *gorm.DB, driver string, dsn string, logger *zap.Logger) error {
	switch driver {
	case driverSQLite:
		if err := gormstore.AutoMigrate(db); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	case driverPostgres:
		return migrations.Up(ctx, dsn, logger)
	default:
		return fmt.Errorf("unsupported database scheme %q", driver)
	}
}
