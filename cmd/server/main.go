package main

import (
	"log"
	"net/http"

	"github.com/refprog/backend/internal/apiclient"
	"github.com/refprog/backend/internal/config"
	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/services"
	"github.com/refprog/backend/internal/sync"
	"github.com/refprog/backend/internal/web"
)

func main() {
	cfg := config.Load()

	if err := db.Init(cfg.DBPath); err != nil {
		log.Fatalf("db init: %v", err)
	}
	if err := services.SeedPermissions(); err != nil {
		log.Fatalf("seed permissions: %v", err)
	}

	if cfg.SheetsAPIURL != "" {
		api := apiclient.New(cfg.APIBaseURL, cfg.RootToken)
		supervisor := sync.NewSupervisor(sync.NewPartnerSyncer(api), cfg.SyncInterval)
		supervisor.Start()
		defer supervisor.Stop()
	} else {
		log.Println("sheet sync disabled: SHEETS_API_URL is not set")
	}

	r := web.Router()

	log.Printf("referral backend listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal(err)
	}
}
