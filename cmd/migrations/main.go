package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/robinjoseph08/golib/logger"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/backend"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/config"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/csvbooks"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/database"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	app := &cli.App{
		Name:  "migrations",
		Usage: "manage the library database schema and seed data",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					return newMigrator(db).Init(c.Context)
				},
			},
			{
				Name:  "migrate",
				Usage: "apply pending migrations",
				Action: func(c *cli.Context) error {
					group, err := newMigrator(db).Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("There are no new migrations to run")
						return nil
					}
					fmt.Printf("Migrated to %s\n", group)
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "roll back the last migration group",
				Action: func(c *cli.Context) error {
					group, err := newMigrator(db).Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("There are no groups to roll back")
						return nil
					}
					fmt.Printf("Rolled back %s\n", group)
					return nil
				},
			},
			{
				Name:      "create",
				Usage:     "create a Go migration",
				ArgsUsage: "<name words...>",
				Action: func(c *cli.Context) error {
					name := strings.Join(c.Args().Slice(), "_")
					mf, err := newMigrator(db).CreateGoMigration(c.Context, name, migrate.WithGoTemplate(migrationTemplate))
					if err != nil {
						return err
					}
					fmt.Printf("Created migration %s (%s)\n", mf.Name, mf.Path)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					ms, err := newMigrator(db).MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("Migrations: %s\n", ms)
					fmt.Printf("Unapplied migrations: %s\n", ms.Unapplied())
					fmt.Printf("Last migration group: %s\n", ms.LastGroup())
					return nil
				},
			},
			{
				Name:  "seed-books",
				Usage: "push the bundled dataset into the books collection",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dataset", Value: cfg.DatasetPath, Usage: "path to the dataset CSV"},
					&cli.StringFlag{Name: "dialect", Value: cfg.DatasetDialect, Usage: "simple or quoted"},
				},
				Action: func(c *cli.Context) error {
					dialect, err := csvbooks.ParseDialect(c.String("dialect"))
					if err != nil {
						return err
					}
					skipped := 0
					books, err := csvbooks.LoadFile(c.String("dataset"), csvbooks.ParseOptions{
						Dialect: dialect,
						OnSkip: func(e csvbooks.RowError) {
							skipped++
							log.Debug("skipped dataset row", logger.Data{"line": e.Line, "reason": e.Reason})
						},
					})
					if err != nil {
						return err
					}
					n, err := backend.NewService(db).SyncBooks(c.Context, books)
					if err != nil {
						return err
					}
					fmt.Printf("Synced %d books (%d rows skipped)\n", n, skipped)
					return nil
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}

func newMigrator(db *bun.DB) *migrate.Migrator {
	return migrate.NewMigrator(db, migrations.Migrations)
}

const migrationTemplate = `package %s

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("")
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("")
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
`
