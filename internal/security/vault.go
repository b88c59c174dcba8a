// Package security provides at-rest credential encryption and log masking.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// keySize is the size of the AES-256 key in bytes.
	keySize = 32
	// saltSize is the size of the salt for key derivation.
	saltSize = 16
	// nonceSize is the size of the GCM nonce.
	nonceSize = 12
	// pbkdf2Iterations is the number of iterations for key derivation.
	pbkdf2Iterations = 100000

	vaultVersion = 1
)

// Vault is the on-disk envelope for an encrypted credential payload.
type Vault struct {
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
	Version    int    `json:"version"`
}

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keySize, sha256.New)
}

// Seal encrypts v as JSON under a key derived from passphrase.
func Seal(v interface{}, passphrase string) (*Vault, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase must not be empty")
	}

	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)
	return &Vault{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Version:    vaultVersion,
	}, nil
}

// Open decrypts the vault into v. A wrong passphrase fails GCM
// authentication and returns an error.
func (vt *Vault) Open(passphrase string, v interface{}) error {
	salt, err := base64.StdEncoding.DecodeString(vt.Salt)
	if err != nil {
		return fmt.Errorf("decoding salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(vt.Nonce)
	if err != nil {
		return fmt.Errorf("decoding nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(vt.Ciphertext)
	if err != nil {
		return fmt.Errorf("decoding ciphertext: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("creating GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("decrypting vault: %w", err)
	}

	return json.Unmarshal(plaintext, v)
}

// SaveVault writes a sealed payload to path with owner-only permissions.
func SaveVault(path string, v interface{}, passphrase string) error {
	vault, err := Seal(v, passphrase)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(vault, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding vault: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadVault reads and decrypts a sealed payload from path into v.
func LoadVault(path string, passphrase string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var vault Vault
	if err := json.Unmarshal(data, &vault); err != nil {
		return fmt.Errorf("parsing vault file: %w", err)
	}
	return vault.Open(passphrase, v)
}

// Mask obscures a secret for display, keeping the last four characters.
func Mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
