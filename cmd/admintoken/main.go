// Command admintoken mints a short-lived operator token for /admin routes.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mockskills/collabzone/internal/auth"
	"github.com/mockskills/collabzone/internal/config"
)

func main() {
	subject := flag.String("sub", "", "operator identity recorded in the token")
	ttl := flag.Duration("ttl", 15*time.Minute, "token lifetime")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "usage: admintoken -sub ops@mockskills.com [-ttl 15m]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := auth.NewManager(cfg.JWTSecret, *ttl).GenerateAccessToken(*subject, auth.RoleAdmin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign:", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
