// Package main provides a CLI that runs Lua scenarios through the slotted
// dispatch runtime against the headless simulator.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/slotted/internal/platform/config"

	slotsimcmd "github.com/louisbranch/slotted/internal/cmd/slotsim"
)

func main() {
	log.SetPrefix("[SLOTSIM] ")
	cfg, err := slotsimcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := slotsimcmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		stop()
		config.Exit(err)
	}
}
