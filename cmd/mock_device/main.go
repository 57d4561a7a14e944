// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kev-in-ta/CARISPAWProject/internal/app"
	"github.com/kev-in-ta/CARISPAWProject/internal/protocol"
	"github.com/kev-in-ta/CARISPAWProject/internal/transport"
)

func main() {
	kindName := flag.String("transport", "tcp", "tcp or udp")
	addr := flag.String("addr", "127.0.0.1:65432", "acquisition host address")
	schemaName := flag.String("schema", "frame", "frame or wheel")
	rate := flag.Float64("rate", 100, "messages per second")
	count := flag.Int("count", 0, "stop after this many messages (0 = run until interrupted)")
	corrupt := flag.Int("corrupt-every", 0, "inject a corrupt frame after every n messages")
	flag.Parse()

	kind, err := transport.ParseKind(*kindName)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	schema, err := protocol.ParseSchema(*schemaName)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	log.Println("starting CARIS PAW mock module")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = app.RunMockDevice(ctx, app.MockDeviceOptions{
		Transport:    kind,
		Addr:         *addr,
		Schema:       schema,
		Rate:         *rate,
		Count:        *count,
		CorruptEvery: *corrupt,
	})
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
