package main

import (
	"flag"
	"log"

	"github.com/kev-in-ta/CARISPAWProject/internal/app"
	"github.com/kev-in-ta/CARISPAWProject/internal/config"
)

func main() {
	configPath := flag.String("config", "./daq_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting CARIS PAW console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
