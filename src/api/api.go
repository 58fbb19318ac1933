package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verdant-dao/carbon-claims/src/api/config"
	"github.com/verdant-dao/carbon-claims/src/api/data"
	"github.com/verdant-dao/carbon-claims/src/api/types"
	"github.com/verdant-dao/carbon-claims/src/api/webserver"
	"github.com/verdant-dao/carbon-claims/src/ledger"
	"github.com/verdant-dao/carbon-claims/src/notify"
	"gorm.io/gorm"
)

var allModels = []interface{}{
	&types.Claim{}, &types.Organisation{}, &types.VoteReceipt{},
}

func migrate(db *gorm.DB) {
	if err := db.AutoMigrate(allModels...); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func main() {
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)
	migrate(db)
	rdb := data.MustRedis(cfg.RedisURL)

	lc := ledger.NewRPCClient(cfg.RPCURL, cfg.SenderAddress, 30*time.Second)
	ids := ledger.ObjectIDs{
		Package:      cfg.PackageID,
		ClaimHandler: cfg.ClaimHandler,
		OrgHandler:   cfg.OrgHandler,
		Clock:        cfg.ClockObjectID,
	}

	coord := ledger.NewCoordinator(lc, ids)
	engine := ledger.NewTallyEngine(lc, ids, coord)

	var notifier *notify.Notifier
	if cfg.DiscordToken != "" && cfg.DiscordChannel != "" {
		var err error
		notifier, err = notify.New(cfg.DiscordToken, cfg.DiscordChannel, rdb)
		if err != nil {
			log.Fatalf("discord: %v", err)
		}
		defer notifier.Close()
	}

	coord.SetOnUpdate(func(snap ledger.Snapshot) {
		if err := data.ReplaceClaims(db, snap); err != nil {
			log.Printf("snapshot persist: %v", err)
		}
		if notifier != nil {
			notifier.OnSnapshot(snap)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())

	// Passive path: standing subscription on the claim-handler object.
	ledger.StartObjectWatcher(ctx, cfg.WSURL, cfg.ClaimHandler, coord)
	if notifier != nil {
		notifier.Start(ctx)
	}

	// Seed the snapshot once; periodic refreshes keep it warm even when no
	// user triggers the active path.
	go func() {
		refresh := func() {
			rctx, rcancel := context.WithTimeout(ctx, 60*time.Second)
			defer rcancel()
			if err := coord.RefreshActive(rctx); err != nil {
				log.Printf("claim refresh: %v", err)
			}
		}
		refresh()
		ticker := time.NewTicker(time.Duration(cfg.PollInterval) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refresh()
			}
		}
	}()

	router := webserver.New(cfg, db, rdb, lc, ids, coord, engine)
	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("carbon claims API listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
