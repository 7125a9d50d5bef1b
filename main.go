package main

import (
	"flag"
	"log"
	"net/http"

	"peacewar/internal/config"
	"peacewar/internal/game"
	"peacewar/internal/handlers"
	"peacewar/internal/logging"
	"peacewar/internal/storage"
	"peacewar/internal/storage/memory"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	addr := flag.String("addr", "", "listen address (overrides PEACEWAR_ADDR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logging.Debug = *debug || cfg.Debug
	if *addr != "" {
		cfg.Addr = *addr
	}

	var store game.Store
	if cfg.DatabaseURL != "" {
		db, err := storage.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		store = storage.NewStore(db)
	} else {
		log.Printf("PEACEWAR_DATABASE_URL not set, using in-memory store")
		store = memory.NewStore()
	}

	svc := game.NewService(store, nil)
	h := handlers.NewHandler(svc)

	mux := http.NewServeMux()
	h.Register(mux)

	log.Printf("peacewar %s listening on %s", commit, cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, mux))
}
