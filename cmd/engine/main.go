package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"siphon/internal/config"
	"siphon/internal/engine"
	"siphon/internal/logging"
	"siphon/source/mqtt"

	_ "siphon/sink/stdout"
)

func main() {
	pipelineYml := flag.String("pipeline", "pipeline.yml", "pipeline spec file")
	metricsPort := flag.Int("metrics-port", 9100, "prometheus listen port")
	probe := flag.Bool("check", false, "test the broker connection and exit")
	flag.Parse()

	logging.InitFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	mqtt.Register("paho", mqtt.NewPahoClient)

	if *probe {
		runCheck(ctx, *pipelineYml)
		return
	}

	e, err := engine.Bootstrap(ctx, engine.Config{
		MetricsPort: *metricsPort,
		PipelineYml: *pipelineYml,
	})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("engine: %v", err)
	}
}

func runCheck(ctx context.Context, pipelineYml string) {
	spec, err := config.LoadPipelineSpec(pipelineYml)
	if err != nil {
		log.Fatalf("check: %v", err)
	}
	cfg, err := config.LoadSourceConfig(spec.Source.Config)
	if err != nil {
		log.Fatalf("check: %v", err)
	}
	driver := spec.Source.Driver
	if driver == "" {
		driver = "paho"
	}

	p := mqtt.TestConnection(ctx, cfg, driver)
	if p.Status != mqtt.StatusSucceeded {
		log.Fatalf("check: %s: %s", p.Status, p.Detail)
	}
	fmt.Printf("check: %s: broker %s\n", p.Status, cfg.BrokerURL())
}
