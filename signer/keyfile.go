package signer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"golang.org/x/crypto/argon2"
)

const (
	// Argon2id parameters for keyring encryption.
	Argon2Time        = 3
	Argon2Memory      = 64 * 1024 // 64 MB
	Argon2Parallelism = 4
	Argon2KeyLen      = 32

	// Encryption format sizes.
	SaltLen     = 16
	NonceLen    = 12
	ChecksumLen = 4
)

// EncryptKeyring encrypts every key in k with Argon2id + AES-256-GCM.
//
// Output format: salt(16B) || nonce(12B) || AES-GCM(argon2id(password,salt), nonce, body||checksum)
//
// body is a JSON object mapping address to 32-byte private key scalar, and
// checksum is SHA256(body)[:4].
func EncryptKeyring(k *Keyring, password string) ([]byte, error) {
	if k == nil {
		return nil, fmt.Errorf("%w: keyring", ErrNilParam)
	}

	k.mu.RLock()
	raw := make(map[string][]byte, len(k.keys))
	for addr, priv := range k.keys {
		raw[addr] = priv.Serialize()
	}
	k.mu.RUnlock()

	body, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("signer: encode keyring: %w", err)
	}

	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("signer: failed to generate salt: %w", err)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(body)
	plaintext := make([]byte, 0, len(body)+ChecksumLen)
	plaintext = append(plaintext, body...)
	plaintext = append(plaintext, sum[:ChecksumLen]...)

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("signer: failed to generate nonce: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	result := make([]byte, 0, SaltLen+NonceLen+len(ciphertext))
	result = append(result, salt...)
	result = append(result, nonce...)
	result = append(result, ciphertext...)
	return result, nil
}

// DecryptKeyring reverses EncryptKeyring.
func DecryptKeyring(encrypted []byte, password string) (*Keyring, error) {
	if len(encrypted) < SaltLen+NonceLen+ChecksumLen {
		return nil, ErrDecryptionFailed
	}
	salt := encrypted[:SaltLen]
	nonce := encrypted[SaltLen : SaltLen+NonceLen]
	ciphertext := encrypted[SaltLen+NonceLen:]

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil || len(plaintext) < ChecksumLen {
		return nil, ErrDecryptionFailed
	}

	body := plaintext[:len(plaintext)-ChecksumLen]
	sum := sha256.Sum256(body)
	if subtle.ConstantTimeCompare(sum[:ChecksumLen], plaintext[len(body):]) != 1 {
		return nil, ErrChecksumMismatch
	}

	var raw map[string][]byte
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	k := NewKeyring()
	for addr, scalar := range raw {
		if len(scalar) != 32 {
			return nil, fmt.Errorf("%w: %q has %d-byte key", ErrInvalidKey, addr, len(scalar))
		}
		priv, _ := ec.PrivateKeyFromBytes(scalar)
		k.keys[addr] = priv
	}
	return k, nil
}

// SaveKeyring encrypts k and writes it to path with 0600 permissions.
func SaveKeyring(path string, k *Keyring, password string) error {
	data, err := EncryptKeyring(k, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("signer: create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("signer: write keyring: %w", err)
	}
	return nil
}

// LoadKeyring reads and decrypts the keyring at path. A missing file yields
// an empty keyring.
func LoadKeyring(path string, password string) (*Keyring, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewKeyring(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("signer: read keyring: %w", err)
	}
	return DecryptKeyring(data, password)
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	derivedKey := argon2.IDKey(
		[]byte(password),
		salt,
		Argon2Time,
		Argon2Memory,
		Argon2Parallelism,
		Argon2KeyLen,
	)
	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, fmt.Errorf("signer: AES cipher creation failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("signer: GCM creation failed: %w", err)
	}
	return gcm, nil
}
