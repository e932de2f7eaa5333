package main

import (
	"fmt"
	"log"

	"github.com/oggyb/buddyup/internal/auth"
	"github.com/oggyb/buddyup/internal/config"
	"github.com/oggyb/buddyup/internal/db"
	"github.com/oggyb/buddyup/internal/logger"
)

func main() {
	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	ids, err := db.SeedTestData(database)
	if err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	// dev tokens for grpcurl: -H "authorization: Bearer <token>"
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	for _, id := range ids {
		tok, err := tokens.Issue(id)
		if err != nil {
			log.Fatalf("failed to issue token for %s: %v", id, err)
		}
		fmt.Printf("%s\t%s\n", id, tok)
	}

	log.Printf("Seeding completed: %d profiles.", len(ids))
}
