package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/imaker-dev/restro-backend-sub002/config"
	"github.com/imaker-dev/restro-backend-sub002/internal/repository"
	"github.com/imaker-dev/restro-backend-sub002/internal/service"
	"github.com/imaker-dev/restro-backend-sub002/pkg/database"
	"github.com/imaker-dev/restro-backend-sub002/pkg/jwt"
	applogger "github.com/imaker-dev/restro-backend-sub002/pkg/logger"
	"github.com/imaker-dev/restro-backend-sub002/pkg/redis"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "floorctl",
		Usage: "Operator tooling for the tableside floor service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "config file path", Sources: cli.EnvVars("TABLESIDE_CONFIG")},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			auditCommand(),
			tokenCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func load(c *cli.Command) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	logger, err := applogger.New(&cfg.Log, "floorctl")
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger}, nil
}

func (e *env) openDB() (*gorm.DB, error) {
	return database.NewDB(&e.cfg.Database, e.cfg.Log.Level, e.logger)
}

// ── migrate ──

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply or roll back schema migrations",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply every pending migration",
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := load(c)
					if err != nil {
						return err
					}
					db, err := e.openDB()
					if err != nil {
						return err
					}
					sqlDB, err := db.DB()
					if err != nil {
						return err
					}
					defer sqlDB.Close()
					return database.RunMigrations(sqlDB, e.logger)
				},
			},
			{
				Name:  "down",
				Usage: "Roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to revert"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					steps := int(c.Int("steps"))
					if steps < 1 {
						return fmt.Errorf("--steps must be at least 1")
					}
					e, err := load(c)
					if err != nil {
						return err
					}
					db, err := e.openDB()
					if err != nil {
						return err
					}
					sqlDB, err := db.DB()
					if err != nil {
						return err
					}
					defer sqlDB.Close()
					return database.RollbackMigrations(sqlDB, steps, e.logger)
				},
			},
		},
	}
}

// ── audit ──

func auditCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Consistency checks",
		Commands: []*cli.Command{
			{
				Name:  "capacity",
				Usage: "Compare each table's capacity against its base capacity plus active merges",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "outlet", Required: true, Usage: "outlet id"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := load(c)
					if err != nil {
						return err
					}
					db, err := e.openDB()
					if err != nil {
						return err
					}
					if sqlDB, err := db.DB(); err == nil {
						defer sqlDB.Close()
					}

					svc := service.NewService(e.cfg, repository.NewRepository(db), service.Deps{}, e.logger)
					audit, err := svc.Merge.AuditCapacity(ctx, c.String("outlet"))
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(audit)
					}

					fmt.Printf("outlet %s: %d tables checked, %d drifted\n", audit.OutletID, audit.Checked, len(audit.Drifts))
					for _, d := range audit.Drifts {
						fmt.Printf("  %-8s capacity=%d expected=%d (base %d + merged %d)\n",
							d.TableNumber, d.Actual, d.Expected, d.Base, d.MergedSum)
					}
					if len(audit.Drifts) > 0 {
						return cli.Exit("capacity drift detected", 2)
					}
					return nil
				},
			},
		},
	}
}

// ── token ──

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Access tokens for service accounts and debugging",
		Commands: []*cli.Command{
			{
				Name:  "issue",
				Usage: "Issue an access token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true, Usage: "staff user id"},
					&cli.StringFlag{Name: "role", Required: true, Usage: "staff role"},
					&cli.StringFlag{Name: "outlet", Usage: "outlet id; empty for outlet-wide tokens"},
					&cli.DurationFlag{Name: "ttl", Value: 12 * time.Hour, Usage: "token lifetime"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := load(c)
					if err != nil {
						return err
					}
					token, err := jwt.NewManager(&e.cfg.Auth).GenerateAccessToken(
						c.String("user"), c.String("role"), c.String("outlet"), c.Duration("ttl"))
					if err != nil {
						return err
					}
					fmt.Println(token)
					return nil
				},
			},
			{
				Name:  "revoke",
				Usage: "Revoke an access token until it expires",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "token", Required: true, Usage: "the access token"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := load(c)
					if err != nil {
						return err
					}
					claims, err := jwt.NewManager(&e.cfg.Auth).ParseToken(c.String("token"))
					if err != nil {
						return err
					}
					if claims.ID == "" || claims.ExpiresAt == nil {
						return fmt.Errorf("token has no id or expiry, cannot revoke")
					}

					rdb, err := redis.NewClient(&e.cfg.Redis, e.logger)
					if err != nil {
						return err
					}
					defer rdb.Close()

					ttl := time.Until(claims.ExpiresAt.Time)
					if err := rdb.BlacklistToken(ctx, claims.ID, ttl); err != nil {
						return err
					}
					fmt.Printf("revoked %s (expires in %s)\n", claims.ID, ttl.Round(time.Second))
					return nil
				},
			},
		},
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
