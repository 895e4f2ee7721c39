package security

import (
	"NoticeBoard/internal/core/ports"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// sealFormatV1 is the first byte of every sealed payload: version, nonce, GCM ciphertext.
const sealFormatV1 byte = 1

var (
	// ErrInvalidSealingKey is returned for keys that are not 16 or 32 bytes
	// (32 or 64 hex characters).
	ErrInvalidSealingKey = errors.New("sealing key must be 16 or 32 bytes (32 or 64 hex chars)")
	// ErrCiphertextTooShort is returned by Open for input shorter than the header.
	ErrCiphertextTooShort = errors.New("ciphertext is too short")
	// ErrUnsupportedFormat is returned by Open when the version byte is unknown.
	ErrUnsupportedFormat = errors.New("sealed payload has an unsupported format version")
)

// aesSealer implements ports.PayloadSealer using AES-GCM.
type aesSealer struct {
	gcm         cipher.AEAD
	fingerprint string
	log         zerolog.Logger
}

// NewAESSealer creates a sealer from a raw 16- or 32-byte key.
func NewAESSealer(key []byte, baseLogger *zerolog.Logger) (ports.PayloadSealer, error) {
	if !validKeySize(len(key)) {
		return nil, fmt.Errorf("%w, got %d bytes", ErrInvalidSealingKey, len(key))
	}
	return newAESSealer(key, baseLogger)
}

// NewAESSealerFromHex accepts the ENCRYPTION_KEY form of a key. Surrounding
// whitespace is ignored; the length is checked before decoding so a short
// key never reaches the cipher.
func NewAESSealerFromHex(hexKey string, baseLogger *zerolog.Logger) (ports.PayloadSealer, error) {
	hexKey = strings.TrimSpace(hexKey)
	if len(hexKey)%2 != 0 || !validKeySize(len(hexKey)/2) {
		return nil, fmt.Errorf("%w, got %d hex chars", ErrInvalidSealingKey, len(hexKey))
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSealingKey, err)
	}
	return newAESSealer(key, baseLogger)
}

func validKeySize(n int) bool {
	return n == 16 || n == 32
}

// KeyFingerprint identifies a key in logs without revealing it.
func KeyFingerprint(key []byte) string {
	sum := sha256.Sum256(key)
	return hex.EncodeToString(sum[:4])
}

func newAESSealer(key []byte, baseLogger *zerolog.Logger) (*aesSealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("could not create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("could not create GCM: %w", err)
	}

	s := &aesSealer{
		gcm:         gcm,
		fingerprint: KeyFingerprint(key),
		log:         baseLogger.With().Str("component", "payload_sealer").Logger(),
	}
	s.log.Info().
		Int("key_bits", len(key)*8).
		Str("key_fingerprint", s.fingerprint).
		Msg("Payload sealer initialized")
	return s, nil
}

// Seal returns version || nonce || ciphertext. The version byte is
// authenticated as associated data.
func (s *aesSealer) Seal(plaintext []byte) ([]byte, error) {
	nonceSize := s.gcm.NonceSize()
	out := make([]byte, 1+nonceSize, 1+nonceSize+len(plaintext)+s.gcm.Overhead())
	out[0] = sealFormatV1

	nonce := out[1:]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		s.log.Error().Err(err).Msg("Failed to generate nonce")
		return nil, fmt.Errorf("could not generate nonce: %w", err)
	}

	return s.gcm.Seal(out, nonce, plaintext, out[:1]), nil
}

// Open checks the version byte, splits off the nonce and authenticates the rest.
func (s *aesSealer) Open(ciphertext []byte) ([]byte, error) {
	header := 1 + s.gcm.NonceSize()
	if len(ciphertext) < header {
		return nil, ErrCiphertextTooShort
	}
	if ciphertext[0] != sealFormatV1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, ciphertext[0])
	}

	nonce, sealed := ciphertext[1:header], ciphertext[header:]

	plaintext, err := s.gcm.Open(nil, nonce, sealed, ciphertext[:1])
	if err != nil {
		// This can happen if the journal row was tampered with or sealed with another key
		s.log.Warn().Err(err).
			Str("key_fingerprint", s.fingerprint).
			Msg("Failed to open sealed payload (tampered, corrupt or wrong key?)")
		return nil, fmt.Errorf("could not open payload: %w", err)
	}

	return plaintext, nil
}
