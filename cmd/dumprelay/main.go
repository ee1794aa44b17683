package main

import (
	"dumper/pkg/config"
	"dumper/pkg/dump"
	"dumper/pkg/pipeline"
	"dumper/pkg/relay"
	"dumper/pkg/sink"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
)

func main() {
	configPath := flag.String("config", "relay.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sinks, err := config.BuildSinks(cfg.Relay.Sinks)
	if err != nil {
		log.Fatalf("Failed to create sinks: %v", err)
	}
	if cfg.Relay.Replay {
		replay := dump.New(dump.Config{Enabled: true, Folder: cfg.Relay.Folder})
		sinks = append(sinks, relay.NewReplaySink(replay))
	}
	if len(sinks) == 0 {
		sinks = append(sinks, sink.NewConsoleSink())
	}

	dataSink := sink.NewMultiSink(sinks)
	defer dataSink.Close()

	server := relay.NewServer()
	if err := server.Start(cfg.Relay.Listen, cfg.Relay.Path); err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}

	// Handle interrupt signal to gracefully shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	go func() {
		<-interrupt
		fmt.Println("Interrupt received, closing relay...")
		_ = server.Close()
	}()

	fmt.Printf("Relaying ws://%s%s to %d sinks\n", server.Addr(), cfg.Relay.Path, dataSink.Len())
	st := pipeline.Run(server.Messages(), server.Errors(), dataSink)
	_ = server.Close()
	fmt.Printf("Relayed %d blocks, %d failed\n", st.Delivered, st.Failed)
}
