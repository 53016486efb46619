// cmd/container.go
//
// Root composition root. Owns infrastructure (DB) and composes the IAM
// bounded context. This is the only place that knows about all modules.
package main

import (
	"context"

	"github.com/Abraxas-365/authgate/pkg/config"
	"github.com/Abraxas-365/authgate/pkg/iam/iamcontainer"
	"github.com/Abraxas-365/authgate/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/authgate/pkg/logx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB *sqlx.DB

	// Bounded-context containers
	IAM *iamcontainer.Container
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure — DB
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("Database connected")

	if err := userinfra.Migrate(context.Background(), db); err != nil {
		logx.Fatalf("Failed to apply migrations: %v", err)
	}
	logx.Info("Migrations applied")
}

// ---------------------------------------------------------------------------
// Module composition — each bounded context wires itself
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	c.IAM = iamcontainer.New(iamcontainer.Deps{
		DB:  c.DB,
		Cfg: c.Config,
	})
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Bootstrap runs startup invariants (admin account ensure) before the
// server starts listening.
func (c *Container) Bootstrap(ctx context.Context) {
	if err := c.IAM.Bootstrap(ctx); err != nil {
		logx.Fatalf("Failed to bootstrap admin account: %v", err)
	}
	logx.Info("Admin account ensured")
}

func (c *Container) Cleanup() {
	logx.Info("Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("Database connection closed")
		}
	}

	logx.Info("Cleanup complete")
}
