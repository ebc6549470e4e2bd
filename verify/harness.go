package verify

import (
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/kutluhann/kademlia-routing/constants"
	"github.com/kutluhann/kademlia-routing/dht"
	"github.com/kutluhann/kademlia-routing/id_tools"
)

// Options drive Run. Zero values fall back to the defaults below.
type Options struct {
	Trials     int
	Seed       uint64
	Operations int // insert/remove/replace calls per trial
	BucketSize int
	Logger     *zap.Logger
}

// Report counts what Run exercised.
type Report struct {
	Trials     int
	Operations int
	Checks     int
	Inserted   int
	Updated    int
	Full       int
	Replaced   int
	Removed    int
	MaxLen     int
}

const (
	defaultTrials     = 1000
	defaultOperations = 64
)

func (o Options) withDefaults() Options {
	if o.Trials < 1 {
		o.Trials = defaultTrials
	}
	if o.Operations < 1 {
		o.Operations = defaultOperations
	}
	if o.BucketSize < 1 {
		o.BucketSize = constants.DefaultBucketSize
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Run builds Trials random tables and checks every property after each
// operation. Identifiers are drawn close to the local id and to each other
// so that buckets fill up and single-bit neighbours occur. Runs with the
// same options are identical. The first violation stops the run.
func Run(opts Options) (Report, error) {
	opts = opts.withDefaults()
	report := Report{}

	for trial := 0; trial < opts.Trials; trial++ {
		r := rand.New(rand.NewPCG(opts.Seed, uint64(trial)))
		if err := runTrial(r, opts, &report); err != nil {
			opts.Logger.Error("property violated", zap.Int("trial", trial), zap.Error(err))
			return report, fmt.Errorf("trial %d (seed %d): %w", trial, opts.Seed, err)
		}
		report.Trials++

		if (trial+1)%100 == 0 {
			opts.Logger.Debug("trials completed", zap.Int("trials", trial+1), zap.Int("checks", report.Checks))
		}
	}

	opts.Logger.Info("verification finished",
		zap.Int("trials", report.Trials),
		zap.Int("operations", report.Operations),
		zap.Int("checks", report.Checks))
	return report, nil
}

func runTrial(r *rand.Rand, opts Options, report *Report) error {
	local := id_tools.RandomNodeIDFrom(r)
	table := dht.NewRoutingTable(local, dht.WithBucketSize(opts.BucketSize))
	pool := []id_tools.NodeID{local}

	for op := 0; op < opts.Operations; op++ {
		report.Operations++

		id := pick(r, pool)
		c := dht.Contact{ID: id, IP: "127.0.0.1", Port: 3000 + op}

		switch r.IntN(8) {
		case 0:
			removed, err := table.Remove(id)
			if err != nil && id != local {
				return err
			}
			if removed {
				report.Removed++
			}
		default:
			out, err := table.Insert(c)
			if id == local {
				if err == nil {
					return fmt.Errorf("%w: local id was accepted", ErrMembership)
				}
				continue
			}
			if err != nil {
				return err
			}
			if err := countInsert(r, table, c, out, report); err != nil {
				return err
			}
		}

		pool = append(pool, id)
		if err := CheckCapacity(table); err != nil {
			return err
		}
		report.Checks++
	}

	report.MaxLen = max(report.MaxLen, table.Len())
	return checkQueries(r, table, pool, report)
}

// countInsert records the outcome and, for a full bucket, evicts the
// candidate half of the time as a caller with a failed probe would.
func countInsert(r *rand.Rand, table *dht.RoutingTable, c dht.Contact, out dht.InsertOutcome, report *Report) error {
	switch out.Outcome {
	case dht.Inserted:
		report.Inserted++
	case dht.Updated:
		report.Updated++
	case dht.Full:
		report.Full++
		if r.IntN(2) == 0 {
			return nil
		}
		if _, err := table.Replace(out.Candidate.ID, c); err != nil {
			return err
		}
		if table.Contains(out.Candidate.ID) || !table.Contains(c.ID) {
			return fmt.Errorf("%w: replace of %s by %s had no effect", ErrMembership, out.Candidate.ID, c.ID)
		}
		report.Replaced++
	}
	return nil
}

func checkQueries(r *rand.Rand, table *dht.RoutingTable, pool []id_tools.NodeID, report *Report) error {
	targets := []id_tools.NodeID{table.LocalID(), id_tools.RandomNodeIDFrom(r)}
	for i := 0; i < 4; i++ {
		targets = append(targets, pick(r, pool))
	}

	k := table.BucketSize()
	for _, target := range targets {
		for _, n := range []int{0, 1, k, table.Len(), table.Len() + 1, r.IntN(3 * k)} {
			if err := CheckOrderedClosest(table, target, n); err != nil {
				return err
			}
			report.Checks++
		}

		p, q := pick(r, pool), pick(r, pool)
		if err := CheckDistanceInversion(target, p, q); err != nil {
			return err
		}
		if err := CheckMetric(target, p, q); err != nil {
			return err
		}
		report.Checks += 2
	}
	return nil
}

// pick returns an id near one already in pool: a copy with one to three bits
// flipped, three times in four among the lowest 8 bits so ids share long
// prefixes.
func pick(r *rand.Rand, pool []id_tools.NodeID) id_tools.NodeID {
	id := pool[r.IntN(len(pool))]
	if r.IntN(10) == 0 {
		return id
	}
	for n := r.IntN(3) + 1; n > 0; n-- {
		if r.IntN(4) == 0 {
			id = id.FlipBit(r.IntN(constants.IDBits))
		} else {
			id = id.FlipBit(constants.IDBits - 1 - r.IntN(8))
		}
	}
	return id
}
