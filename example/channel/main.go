package main

import (
	"context"
	"fmt"
	"log"
	"time"

	gasproject "github.com/tasneem33355/digitopia-gas-project"
)

func main() {
	flow, err := gasproject.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, records, closeRecords := gasproject.NewChannelStore("fanout", 32)
	defer closeRecords()

	go fanoutWorker("dashboard", records)

	if err := flow.Run(ctx, gasproject.StreamOutRemoteStore(store)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func fanoutWorker(name string, records <-chan *gasproject.StateRecord) {
	for rec := range records {
		fmt.Printf("[%s] scenario=%s snapshots=%d at %s\n",
			name, rec.Scenario, len(rec.Buffer), time.Now().Format(time.RFC3339))
	}
}
