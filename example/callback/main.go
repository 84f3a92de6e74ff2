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

	callback := func(rec *gasproject.StateRecord) error {
		fmt.Printf("%s scenario=%s snapshots=%d prediction=%d confidence=%.2f\n",
			rec.LastUpdate.Format(time.RFC3339Nano),
			rec.Scenario,
			len(rec.Buffer),
			rec.Prediction.Class,
			rec.Prediction.Confidence,
		)
		return nil
	}

	if err := flow.Run(ctx, gasproject.StreamOutCallback("stdout", callback)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}
