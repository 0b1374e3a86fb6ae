// Command token prints an access token that lets the chat gateway act as one member.
package main

import (
	"flag"
	"fmt"
	"log"

	"keybot/keyhub/internal/config"
	jwtpkg "keybot/keyhub/pkg/jwt"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	member := flag.String("member", "", "external id of the member the token acts as")
	flag.Parse()

	if *member == "" {
		log.Fatal("-member is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.JWT.SigningKey == "" {
		log.Fatal("jwt.signing_key is not set")
	}

	token, err := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL).
		GenerateAccessToken(*member)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}
