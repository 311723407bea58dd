package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/kwiyos/flightdeck/internal/controller"
	"github.com/kwiyos/flightdeck/internal/flightapi"
	"github.com/kwiyos/flightdeck/internal/mockserver"
	"github.com/kwiyos/flightdeck/internal/statefeed"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	mock := flag.Bool("mock", false, "serve the canned sample list locally and fetch from it")
	mockPort := flag.String("mock-port", "8086", "port for the mock flights server")
	flag.Parse()

	var source flightapi.Source
	if *mock {
		srv := mockserver.Start(*mockPort)
		defer srv.Close()
		source = flightapi.NewWithBaseURL("http://127.0.0.1:"+*mockPort, 10*time.Second)
	} else {
		client, err := flightapi.New(*cfgPath)
		if err != nil {
			log.Fatalf("FATAL: could not build flights client: %v", err)
		}
		source = client
	}

	// The controller and feed are wired by explicit parameter passing; no
	// package-level shared state anywhere.
	ctrl := controller.New(source)
	defer ctrl.Close()

	feed, err := statefeed.New(*cfgPath, ctrl)
	if err != nil {
		log.Fatalf("FATAL: could not build state feed: %v", err)
	}
	feed.Start()

	ctrl.Load()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	log.Println("flightdeck running. Press Ctrl+C to stop.")
	<-interrupt

	log.Println("Interrupt received. Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := feed.Shutdown(shutdownCtx); err != nil {
		log.Printf("feed shutdown error: %v", err)
	}
}
