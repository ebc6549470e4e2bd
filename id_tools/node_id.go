package id_tools

import (
	"bytes"
	crand "crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"math/bits"
	"math/rand/v2"

	"github.com/mr-tron/base58"

	"github.com/kutluhann/kademlia-routing/constants"
)

// NodeID is a 256-bit identifier, stored big-endian. Its ordering is the
// ordering of the unsigned integer it encodes.
type NodeID [constants.IDBytes]byte

// NodeIDFromUint64 places v in the low-order bytes of an otherwise zero id.
func NodeIDFromUint64(v uint64) NodeID {
	var id NodeID
	binary.BigEndian.PutUint64(id[constants.IDBytes-8:], v)
	return id
}

// ParseNodeID decodes a 64 character hex string.
func ParseNodeID(s string) (NodeID, error) {
	var id NodeID
	if len(s) != hex.EncodedLen(constants.IDBytes) {
		return id, ErrInvalidID
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, ErrInvalidID
	}
	return id, nil
}

// ParseNodeIDBase58 decodes the form produced by NodeID.Base58.
func ParseNodeIDBase58(s string) (NodeID, error) {
	var id NodeID
	raw, err := base58.Decode(s)
	if err != nil || len(raw) > constants.IDBytes {
		return id, ErrInvalidID
	}
	// Shorter inputs are left-padded with zero bytes.
	copy(id[constants.IDBytes-len(raw):], raw)
	return id, nil
}

// RandomNodeID draws an id from the system's secure random source.
func RandomNodeID() (NodeID, error) {
	var id NodeID
	if _, err := crand.Read(id[:]); err != nil {
		return id, Error.Wrap(err)
	}
	return id, nil
}

// RandomNodeIDFrom draws an id from r. Used where runs must be reproducible.
func RandomNodeIDFrom(r *rand.Rand) NodeID {
	var id NodeID
	for i := 0; i < constants.IDBytes; i += 8 {
		binary.BigEndian.PutUint64(id[i:], r.Uint64())
	}
	return id
}

// Distance returns the XOR distance between id and other.
func (id NodeID) Distance(other NodeID) Distance {
	return Xor(id, other)
}

// PrefixLen is the number of leading bits id shares with other, 256 when
// they are equal.
func (id NodeID) PrefixLen(other NodeID) int {
	for i := 0; i < len(id); i++ {
		x := id[i] ^ other[i]

		if x != 0 {
			return i*8 + bits.LeadingZeros8(x)
		}
	}
	return len(id) * 8
}

func (id NodeID) Less(other NodeID) bool {
	return id.Cmp(other) < 0
}

// Cmp compares the ids as unsigned integers.
func (id NodeID) Cmp(other NodeID) int {
	return bytes.Compare(id[:], other[:])
}

// Bit returns bit i counted from the most significant end. It panics if i
// is outside [0, 255].
func (id NodeID) Bit(i int) uint {
	return uint(id[i/8]>>(7-uint(i%8))) & 1
}

// FlipBit returns a copy of id with bit i inverted.
func (id NodeID) FlipBit(i int) NodeID {
	id[i/8] ^= 1 << (7 - uint(i%8))
	return id
}

func (id NodeID) IsZero() bool {
	return id == NodeID{}
}

func (id NodeID) String() string {
	return hex.EncodeToString(id[:])
}

// Short is the first 16 hex characters, for log lines.
func (id NodeID) Short() string {
	return hex.EncodeToString(id[:8])
}

func (id NodeID) Base58() string {
	return base58.Encode(id[:])
}

func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *NodeID) UnmarshalText(text []byte) error {
	parsed, err := ParseNodeID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
