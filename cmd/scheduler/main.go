package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/uzmanim/payment-recon/internal/awsx"
	"github.com/uzmanim/payment-recon/internal/config"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	clients, err := awsx.NewClients(context.Background(), cfg.AWSRegion)
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	p := NewProcessor(cfg, clients)

	// If RUN_LOCAL=true, execute a single pass immediately for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		ev := events.CloudWatchEvent{
			Source: "local",
			Time:   time.Now(),
		}
		if err := p.Handle(context.Background(), ev); err != nil {
			log.Fatalf("local run error: %v", err)
		}
		return
	}

	lambda.Start(p.Handle)
}
