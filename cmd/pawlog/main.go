package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/pawlog/internal/pawlog/app"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config file] [photo <image>]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch flag.Arg(0) {
	case "":
		if err := application.Run(ctx); err != nil {
			log.Fatalf("application error: %v", err)
		}
	case "photo":
		if flag.NArg() != 2 {
			flag.Usage()
			os.Exit(2)
		}
		url, err := application.PreparePhoto(ctx, flag.Arg(1))
		_ = application.Shutdown()
		if err != nil {
			log.Fatalf("failed to prepare photo: %v", err)
		}
		fmt.Println(url)
	default:
		flag.Usage()
		os.Exit(2)
	}
}
