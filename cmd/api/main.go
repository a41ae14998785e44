package main

import (
	"context"
	"net"
	"net/http"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/backend"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/catalog"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/config"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/csvbooks"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/database"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/migrations"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/server"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/snapshots"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/version"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/worker"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting library", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	dialect, err := csvbooks.ParseDialect(cfg.DatasetDialect)
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	store := catalog.NewStore(
		catalog.NewSnapshotStore(snapshots.NewDBStore(db), cfg.SnapshotKey),
		catalog.NewDatasetFile(cfg.DatasetPath, dialect, log),
		log,
	)
	result, err := store.Initialize(ctx)
	if err != nil {
		log.Err(err).Fatal("catalog error")
	}
	data := logger.Data{"source": result.Source, "books": result.Count}
	if result.Message != "" {
		log.Warn(result.Message, data)
	} else {
		log.Info("catalog loaded", data)
	}

	backendService := backend.NewService(db)
	if err := seedBooks(ctx, backendService, store, log); err != nil {
		log.Err(err).Error("failed to seed books collection")
	}

	wrkr := worker.New(store, backendService, cfg.MirrorWorkers)

	srv, err := server.New(cfg, db, store)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", srv.Addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}
		log.Info("server started", logger.Data{"addr": listener.Addr().String()})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	wrkr.Start()
	log.Info("worker started")

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	wrkr.Shutdown()
	log.Info("worker shutdown")

	err = store.Save(ctx)
	if err != nil {
		log.Err(err).Error("final catalog save error")
	}

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}

// seedBooks fills an empty books collection from the catalog so circulation
// records have books to point at.
func seedBooks(ctx context.Context, svc *backend.Service, store *catalog.Store, log logger.Logger) error {
	count, err := svc.CountBooks(ctx)
	if err != nil {
		return err
	}
	if count > 0 || store.Len() == 0 {
		return nil
	}
	n, err := svc.SyncBooks(ctx, store.Books())
	if err != nil {
		return err
	}
	log.Info("seeded books collection", logger.Data{"books": n})
	return nil
}
