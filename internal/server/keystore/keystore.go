// Package keystore loads the asymmetric keypair used to sign access tokens.
//
// The store is a single file: a PKCS#8 PEM private key encrypted with an age
// scrypt passphrase. The verification key is derived from the private key, so
// the two halves can never drift apart. Supported key types are Ed25519
// (signed as EdDSA) and RSA of at least 2048 bits (signed as RS256).
package keystore

import (
	"bytes"
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
	"github.com/dmitrijs2005/gophreddit/internal/common"
)

// KeyType selects the algorithm for Generate.
type KeyType string

const (
	Ed25519 KeyType = "ed25519"
	RSA     KeyType = "rsa"
)

// JWS algorithm names for the supported key types.
const (
	AlgEdDSA = "EdDSA"
	AlgRS256 = "RS256"
)

const (
	pemBlockType  = "PRIVATE KEY"
	minRSABits    = 2048
	rsaGenBits    = 3072
	maxStoreBytes = 64 << 10
)

// scryptWorkFactor is the log2 scrypt cost used when sealing a store.
// Tests lower it; age's own default is 18.
var scryptWorkFactor = 18

// KeyStore holds the immutable signing material. It is safe for concurrent use.
type KeyStore struct {
	private crypto.Signer
	public  crypto.PublicKey
	alg     string
}

// New wraps an Ed25519 or RSA private key.
func New(private crypto.Signer) (*KeyStore, error) {
	switch k := private.(type) {
	case ed25519.PrivateKey:
		if len(k) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("%w: ed25519 private key has %d bytes", common.ErrKeyStore, len(k))
		}
		return &KeyStore{private: k, public: k.Public(), alg: AlgEdDSA}, nil
	case *rsa.PrivateKey:
		if bits := k.N.BitLen(); bits < minRSABits {
			return nil, fmt.Errorf("%w: rsa key is %d bits, need at least %d", common.ErrKeyStore, bits, minRSABits)
		}
		return &KeyStore{private: k, public: k.Public(), alg: AlgRS256}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported key type %T", common.ErrKeyStore, private)
	}
}

// Generate creates a fresh keypair of the given type.
func Generate(kind KeyType) (*KeyStore, error) {
	switch kind {
	case Ed25519, "":
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate ed25519 key: %w", err)
		}
		return New(priv)
	case RSA:
		priv, err := rsa.GenerateKey(rand.Reader, rsaGenBits)
		if err != nil {
			return nil, fmt.Errorf("generate rsa key: %w", err)
		}
		return New(priv)
	}
	return nil, fmt.Errorf("unknown key type %q", kind)
}

// SigningKey returns the private half.
func (ks *KeyStore) SigningKey() crypto.Signer { return ks.private }

// VerificationKey returns the public half.
func (ks *KeyStore) VerificationKey() crypto.PublicKey { return ks.public }

// Algorithm returns the JWS algorithm name matching the key type.
func (ks *KeyStore) Algorithm() string { return ks.alg }

// Save seals ks with passphrase and writes it to path with mode 0600.
// It refuses to overwrite an existing file.
func Save(path, passphrase string, ks *KeyStore) error {
	if passphrase == "" {
		return errors.New("keystore passphrase is empty")
	}

	der, err := x509.MarshalPKCS8PrivateKey(ks.private)
	if err != nil {
		return fmt.Errorf("marshal private key: %w", err)
	}
	block := pem.EncodeToMemory(&pem.Block{Type: pemBlockType, Bytes: der})
	defer common.WipeByteArray(block)

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(scryptWorkFactor)

	var sealed bytes.Buffer
	w, err := age.Encrypt(&sealed, recipient)
	if err != nil {
		return fmt.Errorf("encrypt keystore: %w", err)
	}
	if _, err := w.Write(block); err != nil {
		return fmt.Errorf("encrypt keystore: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("encrypt keystore: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create keystore: %w", err)
	}
	if _, err := f.Write(sealed.Bytes()); err != nil {
		_ = f.Close()
		return fmt.Errorf("write keystore: %w", err)
	}
	return f.Close()
}

// Load reads, decrypts and parses the keystore at path. Every failure wraps
// common.ErrKeyStore.
func Load(path, passphrase string) (*KeyStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrKeyStore, err)
	}
	defer f.Close()

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrKeyStore, err)
	}

	r, err := age.Decrypt(io.LimitReader(f, maxStoreBytes), identity)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt %s: %v", common.ErrKeyStore, path, err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt %s: %v", common.ErrKeyStore, path, err)
	}
	defer common.WipeByteArray(plain)

	return parsePEM(plain)
}

func parsePEM(data []byte) (*KeyStore, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemBlockType {
		return nil, fmt.Errorf("%w: no %q PEM block", common.ErrKeyStore, pemBlockType)
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parse pkcs8: %v", common.ErrKeyStore, err)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported key type %T", common.ErrKeyStore, key)
	}
	return New(signer)
}
