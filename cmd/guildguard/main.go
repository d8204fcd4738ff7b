package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/paprika2227/guildguard/internal/bootstrap"
	"github.com/paprika2227/guildguard/internal/logging"
)

func main() {
	fmt.Println("Starting GuildGuard anti-nuke engine")

	b := bootstrap.New()
	if err := b.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "initialization failed: %v\n", err)
		os.Exit(1)
	}

	if err := b.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	logging.Info("GuildGuard running, press Ctrl+C to stop")
	waitForShutdown()

	if err := b.Shutdown(); err != nil {
		logging.Error("Shutdown error: %v", err)
	}
	logging.Info("Shutdown complete")
}

func waitForShutdown() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}
