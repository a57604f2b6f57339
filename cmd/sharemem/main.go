/*
 *
 * Copyright 2025 The share-mem Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

// Command sharemem is a demo harness for the shared-memory channel: it pushes
// a configurable number of messages from a producer to a consumer through one
// channel and reports throughput.
//
// Run it self-contained (-role both), or start -role consume in one process
// and -role produce in another against the same region name to exercise the
// cross-process path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	sharemem "github.com/toto1234567890/share-mem"
	"github.com/toto1234567890/share-mem/internal/config"
	"github.com/toto1234567890/share-mem/shm"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to yaml config (defaults apply when empty)")
		role       = flag.String("role", "both", "produce, consume, or both")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Error("loading config", "error", err)
			os.Exit(1)
		}
	}

	if err := run(logger, cfg, *role); err != nil {
		logger.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, cfg config.Config, role string) error {
	region, err := shm.Acquire(cfg.RegionName, cfg.RegionBytes())
	if err != nil {
		return err
	}
	defer region.Release()

	logger.Info("region mapped",
		"name", region.Name(),
		"bytes", region.Size(),
		"slots", cfg.CapacitySlots,
		"slot_size", cfg.SlotSize,
		"framing", cfg.Framing)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.TimeoutS)*time.Second)
	defer cancel()

	framing := sharemem.WithFraming(cfg.FramingPolicy())
	start := time.Now()

	switch role {
	case "both":
		ch, err := sharemem.Create(region, cfg.CapacitySlots, cfg.SlotSize, framing)
		if err != nil {
			return err
		}
		defer shm.Destroy(cfg.RegionName)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return produce(ctx, logger, ch, cfg) })
		g.Go(func() error { return consume(ctx, logger, ch, cfg) })
		if err := g.Wait(); err != nil {
			return err
		}
	case "produce":
		// WithAttachExisting lets producer and consumer start in either
		// order: whoever arrives first initializes the header.
		ch, err := sharemem.Create(region, cfg.CapacitySlots, cfg.SlotSize, framing, sharemem.WithAttachExisting())
		if err != nil {
			return err
		}
		if err := produce(ctx, logger, ch, cfg); err != nil {
			return err
		}
	case "consume":
		ch, err := sharemem.Create(region, cfg.CapacitySlots, cfg.SlotSize, framing, sharemem.WithAttachExisting())
		if err != nil {
			return err
		}
		if err := consume(ctx, logger, ch, cfg); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	elapsed := time.Since(start)
	logger.Info("done",
		"role", role,
		"messages", cfg.Messages,
		"elapsed", elapsed,
		"msgs_per_sec", fmt.Sprintf("%.0f", float64(cfg.Messages)/elapsed.Seconds()))
	return nil
}

func produce(ctx context.Context, logger *slog.Logger, ch *sharemem.Channel, cfg config.Config) error {
	payload := make([]byte, cfg.SlotSize)
	for i := 0; i < cfg.Messages; i++ {
		msg := payload[:0]
		msg = fmt.Appendf(msg, "message %d", i)
		if ch.Framing() == sharemem.FramingFixed {
			// Fixed framing carries whole slots; pad out to slot size.
			msg = payload[:cfg.SlotSize]
		}
		if err := ch.Send(ctx, msg); err != nil {
			return fmt.Errorf("send %d: %w", i, err)
		}
	}
	logger.Info("producer finished", "sent", cfg.Messages)
	return nil
}

func consume(ctx context.Context, logger *slog.Logger, ch *sharemem.Channel, cfg config.Config) error {
	for i := 0; i < cfg.Messages; i++ {
		if _, err := ch.Receive(ctx); err != nil {
			return fmt.Errorf("receive %d: %w", i, err)
		}
	}
	logger.Info("consumer finished", "received", cfg.Messages)
	return nil
}
