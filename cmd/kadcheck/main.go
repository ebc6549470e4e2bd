// Command kadcheck builds random routing tables and checks the distance and
// closest-peers properties against them. It exits with status 1 on the first
// violation.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kutluhann/kademlia-routing/config"
	"github.com/kutluhann/kademlia-routing/verify"
)

func main() {
	cfg, err := config.Init()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	trials := flag.Int("trials", cfg.CheckTrials, "number of random tables to build")
	seed := flag.Uint64("seed", cfg.CheckSeed, "random seed, 0 picks one from the clock")
	operations := flag.Int("ops", cfg.CheckOperations, "operations per table")
	bucketSize := flag.Int("k", cfg.BucketSize, "bucket capacity")
	flag.Parse()

	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	opts := verify.Options{
		Trials:     *trials,
		Seed:       *seed,
		Operations: *operations,
		BucketSize: *bucketSize,
		Logger:     logger,
	}
	if opts.Seed == 0 {
		opts.Seed = uint64(time.Now().UnixNano())
	}
	logger.Info("running checks",
		zap.Int("trials", opts.Trials),
		zap.Uint64("seed", opts.Seed),
		zap.Int("bucket_size", opts.BucketSize))

	report, err := verify.Run(opts)
	if err != nil {
		logger.Error("check failed", zap.Error(err), zap.Uint64("seed", opts.Seed))
		logger.Sync()
		os.Exit(1)
	}

	fmt.Printf("ok: %d trials, %d operations, %d checks (inserted %d, updated %d, full %d, replaced %d, removed %d, max size %d)\n",
		report.Trials, report.Operations, report.Checks,
		report.Inserted, report.Updated, report.Full, report.Replaced, report.Removed, report.MaxLen)
}
