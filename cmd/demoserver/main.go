// Command demoserver serves fixture pages for trying NetShield's page
// analysis against clean and tampered versions of the same site.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/raysh454/netshield/internal/demoserver"
)

func main() {
	cfg := demoserver.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("NetShield demo site")
	fmt.Println("  /        landing page")
	fmt.Println("  /signin  sign-in form (v2: credential harvesting copy)")
	fmt.Println("  /promo   offers page (v2: injected hidden iframes)")
	fmt.Println()
	fmt.Printf("Try: netshield -job page -url http://localhost:%d/signin\n", cfg.Port)

	server := demoserver.NewDemoServer(cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
