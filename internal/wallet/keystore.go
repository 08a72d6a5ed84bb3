// Package wallet manages the service's Solana signing identity.
//
// The keypair is persisted as a JSON array of 64 bytes, the same format the
// Solana CLI uses, so operators can inspect or fund the wallet with standard
// tooling (`solana airdrop 2 <address> --url devnet`). A single long-lived
// key is assumed sufficient: the wallet only pays devnet fees for low-value
// integrity proofs, so no rotation or multi-identity support exists.
package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Wallet holds the loaded ed25519 signing keypair.
type Wallet struct {
	key solana.PrivateKey
}

// LoadOrCreate loads the keypair at path, or generates a new one and persists
// it before returning. Creation is race-free across processes: the key is
// written to a temp file and hard-linked into place, and if another process
// wins the link the freshly generated key is discarded in favour of the one
// on disk.
func LoadOrCreate(path string, logger *zap.Logger) (*Wallet, error) {
	if w, err := Load(path); err == nil {
		return w, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}

	created, err := createIfAbsent(path, key)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost the race; the other process's key is authoritative.
		return Load(path)
	}

	w := &Wallet{key: key}
	logger.Info("generated new Solana keypair",
		zap.String("address", w.Address()),
		zap.String("path", path),
	)
	logger.Info("fund the wallet on devnet",
		zap.String("command", fmt.Sprintf("solana airdrop 2 %s --url devnet", w.Address())),
	)
	return w, nil
}

// Load reads an existing keypair file.
func Load(path string) (*Wallet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var bytes []byte
	if err := json.Unmarshal(raw, &byteSlice{&bytes}); err != nil {
		return nil, fmt.Errorf("parse keypair file %q: %w", path, err)
	}
	if len(bytes) != 64 {
		return nil, fmt.Errorf("keypair file %q: expected 64 bytes, got %d", path, len(bytes))
	}
	return &Wallet{key: solana.PrivateKey(bytes)}, nil
}

// PrivateKey returns the signing key for transaction signing.
func (w *Wallet) PrivateKey() solana.PrivateKey { return w.key }

// PublicKey returns the wallet's public key.
func (w *Wallet) PublicKey() solana.PublicKey { return w.key.PublicKey() }

// Address returns the base58 public address of the anchoring account.
func (w *Wallet) Address() string { return w.key.PublicKey().String() }

// createIfAbsent atomically writes key to path unless a file already exists
// there. Returns true when this call created the file.
func createIfAbsent(path string, key solana.PrivateKey) (bool, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return false, fmt.Errorf("create keypair dir %q: %w", dir, err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".keypair-*.json")
	if err != nil {
		return false, fmt.Errorf("create temp keypair file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return false, fmt.Errorf("chmod temp keypair file: %w", err)
	}

	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	enc, err := json.Marshal(ints)
	if err != nil {
		tmp.Close()
		return false, fmt.Errorf("encode keypair: %w", err)
	}
	if _, err := tmp.Write(enc); err != nil {
		tmp.Close()
		return false, fmt.Errorf("write keypair: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("close keypair file: %w", err)
	}

	// Hard link fails if path exists, which makes first-write exclusive even
	// across processes racing on an empty directory.
	if err := os.Link(tmp.Name(), path); err != nil {
		if os.IsExist(err) || fileExists(path) {
			return false, nil
		}
		return false, fmt.Errorf("link keypair into place: %w", err)
	}
	return true, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// byteSlice unmarshals a JSON array of numbers into a []byte, rejecting
// values outside 0..255. encoding/json would otherwise decode a bare []byte
// from base64, which is not the Solana CLI file format.
type byteSlice struct {
	dst *[]byte
}

func (b *byteSlice) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*b.dst = out
	return nil
}
