package ports

// Vault encrypts and decrypts credential material at rest.
type Vault interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
