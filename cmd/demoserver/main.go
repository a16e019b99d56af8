// Command demoserver starts a stand-in inference service so proctord can be
// run without a camera.
// Usage: go run ./cmd/demoserver [port] [scenario]
// Default port: 9000
package main

import (
	"log"
	"os"
	"strconv"

	"github.com/raysh454/proctor/internal/demoserver"
	"github.com/raysh454/proctor/internal/logging"
)

func main() {
	cfg := demoserver.DefaultConfig()

	// Optional: custom port and initial scenario from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}
	if len(os.Args) > 2 {
		cfg.InitialScenario = os.Args[2]
	}

	server := demoserver.NewDemoServer(cfg, logging.NewStdoutLogger("demoserver"))
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
