package id_tools

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ecies "github.com/ecies/go/v2"

	"github.com/kutluhann/kademlia-routing/constants"
)

// PrivateKeyFilePath is where the node identity is kept between runs.
var PrivateKeyFilePath = "identity.key"

// SetDataDirectory moves the identity file into dir.
func SetDataDirectory(dir string) {
	PrivateKeyFilePath = filepath.Join(dir, "identity.key")
}

// Identity is the local node's key pair and the NodeID derived from it.
type Identity struct {
	PrivateKey *ecies.PrivateKey
	ID         NodeID
}

func GenerateIdentity() (*Identity, error) {
	privateKey, err := ecies.GenerateKey()
	if err != nil {
		return nil, Error.Wrap(err)
	}

	return &Identity{
		PrivateKey: privateKey,
		ID:         NodeIDFromPublicKey(privateKey.PublicKey),
	}, nil
}

// SaveIdentity writes the private key as hex, readable only by the owner.
func SaveIdentity(path string, identity *Identity) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return Error.Wrap(err)
	}
	if err := os.WriteFile(path, []byte(identity.PrivateKey.Hex()), 0600); err != nil {
		return Error.Wrap(err)
	}
	return nil
}

func LoadIdentity(path string) (*Identity, error) {
	keyHex, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrIdentityMissing
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}

	privateKey, err := ecies.NewPrivateKeyFromHex(strings.TrimSpace(string(keyHex)))
	if err != nil {
		return nil, Error.Wrap(err)
	}

	return &Identity{
		PrivateKey: privateKey,
		ID:         NodeIDFromPublicKey(privateKey.PublicKey),
	}, nil
}

// LoadOrGenerateIdentity loads the identity at path, creating and saving a
// fresh one when the file does not exist. generated reports which happened.
func LoadOrGenerateIdentity(path string) (identity *Identity, generated bool, err error) {
	identity, err = LoadIdentity(path)
	if err == nil {
		return identity, false, nil
	}
	if !errors.Is(err, ErrIdentityMissing) {
		return nil, false, err
	}

	identity, err = GenerateIdentity()
	if err != nil {
		return nil, false, err
	}
	if err := SaveIdentity(path, identity); err != nil {
		return nil, false, err
	}
	return identity, true, nil
}

// NodeIDFromPublicKey hashes the compressed public key together with the
// system salt.
func NodeIDFromPublicKey(pubKey *ecies.PublicKey) NodeID {
	dataToHash := append(pubKey.Bytes(true), []byte(constants.Salt)...)
	return sha256.Sum256(dataToHash)
}

// CheckPublicKeyMatchesNodeID reports whether id was derived from pubKey.
func CheckPublicKeyMatchesNodeID(pubKey *ecies.PublicKey, id NodeID) bool {
	return NodeIDFromPublicKey(pubKey) == id
}

// VerifyIdentity checks that the id belongs to the key and that the key pair
// survives an encrypt/decrypt round trip.
func VerifyIdentity(identity *Identity) error {
	if !CheckPublicKeyMatchesNodeID(identity.PrivateKey.PublicKey, identity.ID) {
		return ErrIdentityInvalid
	}

	message := []byte(rand.Text())
	ciphertext, err := ecies.Encrypt(identity.PrivateKey.PublicKey, message)
	if err != nil {
		return Error.Wrap(err)
	}
	plaintext, err := ecies.Decrypt(identity.PrivateKey, ciphertext)
	if err != nil {
		return Error.Wrap(err)
	}
	if !bytes.Equal(message, plaintext) {
		return ErrIdentityInvalid
	}
	return nil
}
