package id_tools

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

const propertyTrials = 2000

// nearby flips a handful of bits of id below position from, so that ids
// produced from the same base share a long prefix.
func nearby(r *rand.Rand, id NodeID, from int) NodeID {
	for n := r.IntN(4) + 1; n > 0; n-- {
		id = id.FlipBit(from + r.IntN(256-from))
	}
	return id
}

func TestDistanceSymmetry(t *testing.T) {
	r := rand.New(rand.NewPCG(10, 11))

	for i := 0; i < propertyTrials; i++ {
		a, b := RandomNodeIDFrom(r), RandomNodeIDFrom(r)
		assert.Equal(t, Xor(a, b), Xor(b, a))
		assert.Equal(t, a.Distance(b), b.Distance(a))
	}
}

func TestDistanceIdentity(t *testing.T) {
	r := rand.New(rand.NewPCG(12, 13))

	for i := 0; i < propertyTrials; i++ {
		a := RandomNodeIDFrom(r)
		assert.True(t, Xor(a, a).IsZero())

		b := nearby(r, a, r.IntN(256))
		if a != b {
			assert.False(t, Xor(a, b).IsZero())
		}
	}
}

func TestDistanceUltrametric(t *testing.T) {
	r := rand.New(rand.NewPCG(14, 15))

	for i := 0; i < propertyTrials; i++ {
		a := RandomNodeIDFrom(r)
		b := nearby(r, a, r.IntN(256))
		c := nearby(r, b, r.IntN(256))

		// The inequality holds for distance classes, not raw values.
		ac := Xor(a, c).LeadingZeros()
		bound := min(Xor(a, b).LeadingZeros(), Xor(b, c).LeadingZeros())
		assert.GreaterOrEqual(t, ac, bound, "a=%s b=%s c=%s", a, b, c)
	}
}

func TestRawDistanceIsNotUltrametric(t *testing.T) {
	a, b, c := NodeIDFromUint64(0), NodeIDFromUint64(1), NodeIDFromUint64(3)

	// d(a,c) = 3 exceeds max(d(a,b), d(b,c)) = 2, yet all three share a class
	// bound: 3 and 2 both have 254 leading zeros.
	assert.Equal(t, 1, Xor(a, c).Cmp(Xor(b, c)))
	assert.Equal(t, 1, Xor(a, c).Cmp(Xor(a, b)))
	assert.Equal(t, Xor(b, c).LeadingZeros(), Xor(a, c).LeadingZeros())
}

func TestLeadingZeros(t *testing.T) {
	assert.Equal(t, 256, Distance{}.LeadingZeros())

	var zero NodeID
	for i := 0; i < 256; i++ {
		assert.Equal(t, i, Xor(zero, zero.FlipBit(i)).LeadingZeros())
	}
}

func TestCmpByPrefixAgreesWithCmp(t *testing.T) {
	r := rand.New(rand.NewPCG(16, 17))

	check := func(x, y Distance) {
		assert.Equal(t, x.Cmp(y), x.CmpByPrefix(y), "x=%s y=%s", x, y)
		assert.Equal(t, -x.Cmp(y), y.CmpByPrefix(x))
	}

	for i := 0; i < propertyTrials; i++ {
		target := RandomNodeIDFrom(r)
		p := nearby(r, target, r.IntN(256))
		q := nearby(r, p, r.IntN(256))
		check(Xor(target, p), Xor(target, q))
	}

	// Single-bit neighbours are where an approximate order would flip.
	var zero NodeID
	for i := 0; i < 256; i++ {
		for j := 0; j < 256; j += 17 {
			check(Xor(zero, zero.FlipBit(i)), Xor(zero, zero.FlipBit(j)))
			check(Xor(zero, zero.FlipBit(i)), Xor(zero, zero.FlipBit(i).FlipBit(j)))
		}
	}
	check(Distance{}, Distance{})
}

func TestBucketIndex(t *testing.T) {
	var local NodeID

	assert.Equal(t, -1, BucketIndex(local, local))
	assert.Equal(t, 0, BucketIndex(local, NodeIDFromUint64(1)))
	assert.Equal(t, 1, BucketIndex(local, NodeIDFromUint64(2)))
	assert.Equal(t, 1, BucketIndex(local, NodeIDFromUint64(3)))
	assert.Equal(t, 3, BucketIndex(local, NodeIDFromUint64(8)))
	assert.Equal(t, 255, BucketIndex(local, local.FlipBit(0)))

	for i := 0; i < 256; i++ {
		assert.Equal(t, 255-i, BucketIndex(local, local.FlipBit(i)))
	}
}

func TestBucketIndexIsDeterministic(t *testing.T) {
	r := rand.New(rand.NewPCG(18, 19))
	local := RandomNodeIDFrom(r)

	for i := 0; i < propertyTrials; i++ {
		id := nearby(r, local, r.IntN(256))
		if id == local {
			continue
		}
		index := BucketIndex(local, id)
		assert.Equal(t, index, BucketIndex(local, id))
		assert.Equal(t, index, BucketIndex(id, local))
		assert.Equal(t, 255-Xor(local, id).LeadingZeros(), index)
		assert.Equal(t, Xor(local, id).LeadingZeros(), local.PrefixLen(id))
	}
}

func TestCompareDistance(t *testing.T) {
	r := rand.New(rand.NewPCG(20, 21))

	for i := 0; i < propertyTrials; i++ {
		target := RandomNodeIDFrom(r)
		p := nearby(r, target, r.IntN(256))
		q := nearby(r, target, r.IntN(256))

		c := CompareDistance(target, p, q)
		assert.Equal(t, -c, CompareDistance(target, q, p))
		assert.Equal(t, p == q, c == 0)
		assert.Equal(t, 0, CompareDistance(target, p, p))
	}
}
