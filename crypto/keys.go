// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package crypto implements the RSA keypair, signing, and verification
// primitives used to authenticate transactions and blocks. Every AS node
// owns one RSA-2048 keypair; signatures are PKCS#1 v1.5 over a SHA-256
// digest of the signed payload.
package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// KeyBits is the RSA modulus size used for node identities.
const KeyBits = 2048

// ErrInvalidSignature is returned by Verify when a signature does not
// validate under the supplied public key.
var ErrInvalidSignature = errors.New("crypto: invalid signature")

// KeyPair bundles an AS node's RSA private and public key.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// GenerateKeyPair creates a fresh RSA-2048 keypair for a node.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return nil, fmt.Errorf("crypto: generate key: %w", err)
	}
	return &KeyPair{Private: priv, Public: &priv.PublicKey}, nil
}

// Sign returns the PKCS#1 v1.5 signature over the SHA-256 digest of msg.
func Sign(priv *rsa.PrivateKey, msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: sign: %w", err)
	}
	return sig, nil
}

// Verify reports whether sig is a valid signature over msg under pub.
func Verify(pub *rsa.PublicKey, msg, sig []byte) error {
	if pub == nil {
		return ErrInvalidSignature
	}
	digest := sha256.Sum256(msg)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return ErrInvalidSignature
	}
	return nil
}

// MarshalPublicKey encodes a public key as a PEM block (PKIX).
func MarshalPublicKey(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("crypto: marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: der}), nil
}

// MarshalPrivateKey encodes a private key as a PEM block (PKCS#1), for
// persisting a node's identity to disk between restarts.
func MarshalPrivateKey(priv *rsa.PrivateKey) ([]byte, error) {
	der := x509.MarshalPKCS1PrivateKey(priv)
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}), nil
}

// ParsePrivateKey decodes a PEM-encoded PKCS#1 private key.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("crypto: no PEM block found")
	}
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("crypto: parse private key: %w", err)
	}
	return priv, nil
}

// ParsePublicKey decodes a PEM-encoded PKIX public key.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("crypto: no PEM block found")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("crypto: parse public key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("crypto: not an RSA public key")
	}
	return rsaKey, nil
}
