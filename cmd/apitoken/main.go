package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"invoice-scanner/pkg/auth"
	"invoice-scanner/pkg/config"
)

// apitoken mints a bearer token for the mutating API routes, signed with AUTH_JWT_SECRET.
func main() {
	client := flag.String("client", "dashboard", "name recorded in the token")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to AUTH_TOKEN_TTL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is not set; the API accepts unauthenticated requests")
	}

	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, lifetime).GenerateToken(*client)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Println(token)
	if lifetime > 0 {
		log.Printf("expires %s", time.Now().Add(lifetime).UTC().Format(time.RFC3339))
	}
}
