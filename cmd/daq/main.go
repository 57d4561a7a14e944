// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/kev-in-ta/CARISPAWProject/internal/app"
	"github.com/kev-in-ta/CARISPAWProject/internal/config"
)

func main() {
	configPath := flag.String("config", "./daq_config.txt", "path to configuration file")
	tui := flag.Bool("tui", false, "show the terminal dashboard (logs go to DATA_DIR/daq.log)")
	flag.Parse()

	log.Println("starting CARIS PAW acquisition (modules → CSV, MQTT, web)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunDAQ(app.DAQOptions{TUI: *tui}); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
