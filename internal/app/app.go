// Package app wires configuration, storage, the key service, and the
// HTTP surfaces into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mcpflow/mcpflow/internal/config"
	"github.com/mcpflow/mcpflow/internal/db"
	"github.com/mcpflow/mcpflow/internal/gateway"
	adminapi "github.com/mcpflow/mcpflow/internal/http/api/admin"
	"github.com/mcpflow/mcpflow/internal/http/api/front"
	"github.com/mcpflow/mcpflow/internal/kms"
	"github.com/mcpflow/mcpflow/internal/models"
	"github.com/mcpflow/mcpflow/internal/ratelimit"
	"github.com/mcpflow/mcpflow/internal/security"
	"github.com/mcpflow/mcpflow/internal/store"
	"github.com/mcpflow/mcpflow/internal/usage"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// shutdownTimeout bounds graceful drain on exit.
const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the gateway server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)

	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	jwtCfg, _ := config.LoadJWTConfig(configPath)
	if jwtCfg.Secret == "" {
		return fmt.Errorf("app: missing jwt secret (set `jwt.secret` in config file or %s)", config.EnvJWTSecret)
	}

	sealerKey, errKey := config.LoadSealerKey(configPath)
	if errKey != nil {
		return errKey
	}
	sealer, errSealer := kms.NewAEADService(sealerKey)
	if errSealer != nil {
		return errSealer
	}

	gatewayCfg, _ := config.LoadGatewayConfig(configPath)
	redisCfg, _ := config.LoadRedisConfig(configPath)
	adminCfg, _ := config.LoadAdminConfig(configPath)

	if errSeed := EnsureAdminUser(conn, adminCfg); errSeed != nil {
		return errSeed
	}

	engine := buildEngine(conn, jwtCfg, sealer, gatewayCfg, redisCfg)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting gateway on :%d with config=%s", port, configPath)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return <-errCh
	case errServe := <-errCh:
		return errServe
	}
}

// buildEngine assembles the gin engine with all routes registered.
func buildEngine(conn *gorm.DB, jwtCfg config.JWTConfig, sealer kms.Service, gatewayCfg config.GatewayConfig, redisCfg config.RedisConfig) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	limiter := ratelimit.NewManager(redisCfg, nil, nil)
	client := &http.Client{Timeout: gatewayCfg.UpstreamTimeout}

	gatewayHandler := gateway.NewHandler(
		jwtCfg,
		store.NewUserStore(conn),
		store.NewCredentialStore(conn),
		store.NewServiceStore(conn),
		sealer,
		client,
		usage.NewRecorder(conn),
		limiter,
		gatewayCfg.RateLimit,
	)
	engine.POST("/v1/mcp", gatewayHandler.Proxy)
	engine.GET("/v1/mcp/services", gatewayHandler.Services)

	front.RegisterFrontRoutes(engine, conn, jwtCfg, sealer)
	adminapi.RegisterAdminRoutes(engine, conn, jwtCfg)

	return engine
}

// EnsureAdminUser seeds the configured administrator account when it
// does not exist yet. Empty config means no seeding.
func EnsureAdminUser(conn *gorm.DB, adminCfg config.AdminConfig) error {
	if adminCfg.Username == "" || adminCfg.Password == "" {
		return nil
	}

	var count int64
	if errCount := conn.Model(&models.User{}).
		Where("username = ?", adminCfg.Username).
		Count(&count).Error; errCount != nil {
		return fmt.Errorf("app: check admin user: %w", errCount)
	}
	if count > 0 {
		return nil
	}

	hashed, errHash := security.HashPassword(adminCfg.Password)
	if errHash != nil {
		return errHash
	}

	now := time.Now().UTC()
	admin := models.User{
		Username:  adminCfg.Username,
		Password:  hashed,
		IsAdmin:   true,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		return fmt.Errorf("app: create admin user: %w", errCreate)
	}
	log.Infof("seeded admin user %q", adminCfg.Username)
	return nil
}
