package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/profile"

	"github.com/zeusync/viewsync/internal/client"
	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/injector"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		address    = flag.String("address", "", "runtime address, overrides the config")
		transport  = flag.String("transport", "", "websocket, quic or memory, overrides the config")
		logLevel   = flag.String("log-level", "", "debug, info, warn or error, overrides the config")
		absolute   = flag.Bool("absolute-interest", false, "start with absolute interest")
		profiling  = flag.String("profile", "", "write a cpu or mem profile to the working directory")
	)
	flag.Parse()

	config := client.DefaultConfig()
	if *configPath != "" {
		loaded, err := client.LoadConfig(*configPath)
		if err != nil {
			fmt.Println("Error loading config:", err)
			os.Exit(1)
		}
		config = loaded
	}
	if *address != "" {
		config.Connection.Address = *address
	}
	if *transport != "" {
		config.Transport = *transport
	}
	if *logLevel != "" {
		level, err := log.ParseLevel(*logLevel)
		if err != nil {
			fmt.Println("Error parsing log level:", err)
			os.Exit(1)
		}
		config.LogLevel = level
	}
	if *absolute {
		config.AbsoluteInterest = true
	}

	switch *profiling {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.MemProfileRate(512), profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		fmt.Println("Unknown profile mode:", *profiling)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.ContextWithSessionID(ctx, uuid.NewString())

	c, cleanup, err := injector.InitializeClient(ctx, config)
	if err != nil {
		fmt.Println("Error starting client:", err)
		return
	}
	defer cleanup()

	if err := c.Run(ctx); err != nil {
		fmt.Println("Client stopped:", err)
	}
	if err := c.Close(); err != nil {
		fmt.Println("Error closing client:", err)
	}
}
