// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package main

import (
	"flag"
	"log"

	"github.com/kev-in-ta/CARISPAWProject/internal/app"
	"github.com/kev-in-ta/CARISPAWProject/internal/protocol"
)

func main() {
	schemaName := flag.String("schema", "frame", "module profile: frame or wheel")
	flag.Parse()

	schema, err := protocol.ParseSchema(*schemaName)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	log.Println("starting CARIS PAW mock console")

	if err := app.RunMockConsole(schema); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
