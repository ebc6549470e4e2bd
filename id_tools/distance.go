package id_tools

import (
	"bytes"
	"encoding/hex"
	"math/bits"

	"github.com/kutluhann/kademlia-routing/constants"
)

// Distance is the XOR of two node ids. It is always derived, never stored.
type Distance [constants.IDBytes]byte

// Xor returns the distance between a and b.
func Xor(a, b NodeID) Distance {
	var result Distance
	for i := 0; i < constants.IDBytes; i++ {
		result[i] = a[i] ^ b[i]
	}
	return result
}

// LeadingZeros counts the most significant zero bits of d, 256 for the zero
// distance.
func (d Distance) LeadingZeros() int {
	for i := 0; i < constants.IDBytes; i++ {
		if d[i] != 0 {
			return i*8 + bits.LeadingZeros8(d[i])
		}
	}
	return constants.IDBits
}

// Cmp compares d and other as unsigned 256-bit integers.
func (d Distance) Cmp(other Distance) int {
	return bytes.Compare(d[:], other[:])
}

// CmpByPrefix orders distances by leading-zero count first and by the bits
// below the highest set bit second. It must always agree with Cmp.
func (d Distance) CmpByPrefix(other Distance) int {
	lz, otherLz := d.LeadingZeros(), other.LeadingZeros()
	if lz != otherLz {
		// More leading zeros means a smaller value.
		if lz > otherLz {
			return -1
		}
		return 1
	}

	for i := lz + 1; i < constants.IDBits; i++ {
		x, y := d.bit(i), other.bit(i)
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (d Distance) IsZero() bool {
	return d == Distance{}
}

func (d Distance) String() string {
	return hex.EncodeToString(d[:])
}

func (d Distance) bit(i int) byte {
	return (d[i/8] >> (7 - uint(i%8))) & 1
}

// BucketIndex is the distance class of id as seen from local:
// 255 - LeadingZeros(local XOR id). Index 255 holds ids differing in the top
// bit, index 0 ids differing only in the lowest bit. It returns -1 when
// id == local, which no bucket may hold.
func BucketIndex(local, id NodeID) int {
	return constants.IDBits - 1 - local.PrefixLen(id)
}

// CompareDistance orders p and q by their distance to target. The result is
// zero only when p == q.
func CompareDistance(target, p, q NodeID) int {
	return Xor(target, p).Cmp(Xor(target, q))
}
