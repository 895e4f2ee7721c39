package ports

// PayloadSealer protects payload snapshots before they leave the process.
// The journal works with or without one.
type PayloadSealer interface {
	// Seal returns an authenticated ciphertext for plaintext.
	Seal(plaintext []byte) (ciphertext []byte, err error)

	// Open reverses Seal and fails if the ciphertext was altered.
	Open(ciphertext []byte) (plaintext []byte, err error)
}
