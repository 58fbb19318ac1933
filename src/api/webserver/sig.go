package webserver

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	schnorrkel "github.com/ChainSafe/go-schnorrkel"
	"github.com/mr-tron/base58"
)

// decodeAddress extracts the raw 32-byte public key from either a hex
// (0x-prefixed) ledger address or a base58 substrate-style address.
func decodeAddress(addr string) ([]byte, error) {
	if strings.HasPrefix(addr, "0x") {
		return hex.DecodeString(addr[2:])
	}
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) < 35 {
		return nil, fmt.Errorf("invalid address")
	}
	return raw[1:33], nil // drop 1-byte prefix & 2-byte checksum
}

func strip0x(s string) string {
	if len(s) > 1 && s[:2] == "0x" {
		return s[2:]
	}
	return s
}

// verifySignature checks that the wallet holding addr signed the nonce.
// Ledger wallets sign with ed25519; substrate-style wallets with sr25519.
func verifySignature(scheme, addr, sigHex, nonce string) error {
	pubKeyBytes, err := decodeAddress(addr)
	if err != nil {
		return err
	}
	if len(pubKeyBytes) != 32 {
		return fmt.Errorf("invalid public key length: %d", len(pubKeyBytes))
	}

	sigBytes, err := hex.DecodeString(strip0x(sigHex))
	if err != nil {
		return err
	}
	if len(sigBytes) != 64 {
		return fmt.Errorf("invalid signature length: %d", len(sigBytes))
	}

	switch scheme {
	case "ed25519":
		if !ed25519.Verify(ed25519.PublicKey(pubKeyBytes), []byte(nonce), sigBytes) {
			return fmt.Errorf("signature verification failed")
		}
		return nil

	case "sr25519":
		var pkRaw [32]byte
		copy(pkRaw[:], pubKeyBytes)
		var sigRaw [64]byte
		copy(sigRaw[:], sigBytes)

		var pk schnorrkel.PublicKey
		if err := pk.Decode(pkRaw); err != nil {
			return err
		}
		var sig schnorrkel.Signature
		if err := sig.Decode(sigRaw); err != nil {
			return err
		}

		ctx := schnorrkel.NewSigningContext([]byte("substrate"), []byte(nonce))
		valid, err := pk.Verify(&sig, ctx)
		if err != nil {
			return err
		}
		if !valid {
			return fmt.Errorf("signature verification failed")
		}
		return nil
	}
	return fmt.Errorf("unsupported scheme %q", scheme)
}
