package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attilabuti/eventemitter/v2"
	"go.uber.org/zap"

	"github.com/kutluhann/kademlia-routing/api"
	"github.com/kutluhann/kademlia-routing/config"
	"github.com/kutluhann/kademlia-routing/dht"
	"github.com/kutluhann/kademlia-routing/id_tools"
)

func main() {
	cfg, err := config.Init()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	httpPort := flag.Int("http", cfg.HTTPPort, "HTTP API port for inspection requests")
	bucketSize := flag.Int("k", cfg.BucketSize, "bucket capacity")
	seedPeers := flag.Int("seed-peers", cfg.SeedPeers, "number of random peers to admit at startup")
	identityPath := flag.String("identity", cfg.IdentityPath, "path of the hex encoded private key")
	flag.Parse()

	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(cfg, logger, *identityPath, *bucketSize, *seedPeers, *httpPort); err != nil {
		logger.Fatal("node stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, identityPath string, k, seedPeers, httpPort int) error {
	// 1. Identity
	identity, generated, err := id_tools.LoadOrGenerateIdentity(identityPath)
	if err != nil {
		return err
	}
	if generated {
		logger.Info("generated new identity", zap.String("path", identityPath))
	}
	if err := id_tools.VerifyIdentity(identity); err != nil {
		return fmt.Errorf("identity verification failed: %w", err)
	}
	cfg.SetPrivateKey(identity.PrivateKey)
	logger.Info("identity verified", zap.Stringer("node_id", identity.ID), zap.String("base58", identity.ID.Base58()))

	// 2. Routing table
	emitter := eventemitter.New()
	watchTable(emitter, logger)

	table := dht.NewSyncTable(dht.NewRoutingTable(identity.ID,
		dht.WithBucketSize(k),
		dht.WithLogger(logger),
		dht.WithEmitter(emitter)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Optional synthetic peers
	if seedPeers > 0 {
		seeded := seedTable(ctx, table, seedPeers, &DialProber{Timeout: 200 * time.Millisecond}, logger)
		logger.Info("seeded routing table", zap.Int("admitted", seeded), zap.Int("known_peers", table.Len()))
	}

	// 4. Inspection API
	server := api.NewHTTPServer(table, httpPort, logger)
	errc := make(chan error, 1)
	go func() {
		errc <- server.Start()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// seedTable admits count random loopback contacts and returns how many of
// them ended up in the table.
func seedTable(ctx context.Context, table *dht.SyncTable, count int, prober dht.Prober, logger *zap.Logger) int {
	admitted := 0
	for i := 0; i < count && ctx.Err() == nil; i++ {
		id, err := id_tools.RandomNodeID()
		if err != nil {
			logger.Warn("random id", zap.Error(err))
			continue
		}
		c := dht.NewContact(id, "127.0.0.1", 10000+rand.IntN(50000))

		out, err := dht.Admit(ctx, table, c, prober)
		if err != nil {
			logger.Warn("admit failed", zap.Stringer("contact", c), zap.Error(err))
			continue
		}
		if out.Outcome != dht.Full {
			admitted++
		}
	}
	return admitted
}

func watchTable(emitter *eventemitter.Emitter, logger *zap.Logger) {
	logger = logger.Named("events")

	emitter.On(dht.EventAdded, func(c dht.Contact) {
		logger.Debug("peer added", zap.Stringer("contact", c))
	})
	emitter.On(dht.EventRemoved, func(c dht.Contact) {
		logger.Debug("peer removed", zap.Stringer("contact", c))
	})
	emitter.On(dht.EventFull, func(candidate dht.Contact, newcomer dht.Contact) {
		logger.Debug("bucket full",
			zap.Stringer("candidate", candidate),
			zap.Stringer("newcomer", newcomer))
	})
}
