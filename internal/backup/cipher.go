package backup

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
)

// EncryptedSuffix marks ciphertext artifacts. An artifact's encrypted flag
// is true iff its path carries this suffix.
const EncryptedSuffix = ".enc"

// Envelope layout: magic | method byte | salt, followed by a
// method-specific body. The salt is embedded so decryption can recover the
// derivation parameters without any side channel.
var envelopeMagic = []byte("TSE1")

const (
	saltSize       = 16
	kdfIterations  = 100_000
	methodByteAES  = 0x01
	methodByteCha  = 0x02
	envelopePrefix = 4 + 1 + saltSize
)

// CipherCodec transforms an archive body into ciphertext and back. Key
// derivation and envelope framing are shared; strategies only seal and
// open bodies.
type CipherCodec interface {
	Method() CipherMethod
	methodByte() byte
	// seal encrypts plaintext; header is authenticated but not encrypted.
	seal(keyMaterial, salt, header, plaintext []byte) ([]byte, error)
	// open verifies and decrypts body; a wrong key or tampered body is an
	// authentication failure, never silently corrupt plaintext.
	open(keyMaterial, salt, header, body []byte) ([]byte, error)
}

// CipherSet manages the registered cipher strategies and the file-level
// encrypt/decrypt operations.
type CipherSet struct {
	codecs map[CipherMethod]CipherCodec
}

// NewCipherSet creates a cipher set with all supported methods.
func NewCipherSet() *CipherSet {
	cs := &CipherSet{codecs: make(map[CipherMethod]CipherCodec)}
	for _, codec := range []CipherCodec{&aesCBCCodec{}, &chaCha20Codec{}} {
		cs.codecs[codec.Method()] = codec
	}
	return cs
}

// Codec returns the strategy for a method.
func (cs *CipherSet) Codec(method CipherMethod) (CipherCodec, error) {
	codec, ok := cs.codecs[method]
	if !ok {
		return nil, NewConfigurationError(fmt.Sprintf("unsupported encryption method: %s", method), nil)
	}
	return codec, nil
}

// EncryptFile wraps the plaintext artifact at plainPath into ciphertext at
// plainPath+EncryptedSuffix. On success the plaintext is deleted; on
// failure it is retained for inspection and an EncryptionError is
// returned.
func (cs *CipherSet) EncryptFile(plainPath string, spec *EncryptionSpec) (string, error) {
	codec, err := cs.Codec(spec.Method)
	if err != nil {
		return "", NewEncryptionError("cannot select cipher", err)
	}

	plaintext, err := os.ReadFile(plainPath)
	if err != nil {
		return "", NewEncryptionError("failed to read plaintext artifact", err).
			WithContext("path", plainPath)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", NewEncryptionError("failed to generate salt", err)
	}

	header := make([]byte, 0, envelopePrefix)
	header = append(header, envelopeMagic...)
	header = append(header, codec.methodByte())
	header = append(header, salt...)

	body, err := codec.seal(spec.Key, salt, header, plaintext)
	if err != nil {
		return "", NewEncryptionError("cipher operation failed", err).
			WithContext("method", string(spec.Method))
	}

	cipherPath := plainPath + EncryptedSuffix
	if err := os.WriteFile(cipherPath, append(header, body...), 0o600); err != nil {
		os.Remove(cipherPath)
		return "", NewEncryptionError("failed to write ciphertext artifact", err).
			WithContext("path", cipherPath)
	}

	// Plaintext must not outlive a successful encryption step.
	if err := os.Remove(plainPath); err != nil {
		return "", NewEncryptionError("failed to remove plaintext artifact", err).
			WithContext("path", plainPath)
	}
	return cipherPath, nil
}

// DecryptFile reverses EncryptFile: it reads the envelope at cipherPath,
// selects the embedded method, verifies integrity with the supplied key
// material and writes the recovered plaintext to outPath.
func (cs *CipherSet) DecryptFile(cipherPath, outPath string, keyMaterial []byte) error {
	data, err := os.ReadFile(cipherPath)
	if err != nil {
		return NewDecryptionError("failed to read encrypted artifact", err).
			WithContext("path", cipherPath)
	}
	if len(data) < envelopePrefix || !bytes.Equal(data[:4], envelopeMagic) {
		return NewDecryptionError("not a recognized encrypted artifact", nil).
			WithContext("path", cipherPath)
	}

	var codec CipherCodec
	for _, candidate := range cs.codecs {
		if candidate.methodByte() == data[4] {
			codec = candidate
			break
		}
	}
	if codec == nil {
		return NewDecryptionError(fmt.Sprintf("unknown cipher method tag: %#x", data[4]), nil)
	}

	header := data[:envelopePrefix]
	salt := data[5:envelopePrefix]
	plaintext, err := codec.open(keyMaterial, salt, header, data[envelopePrefix:])
	if err != nil {
		return NewDecryptionError("wrong key or corrupt ciphertext", err).
			WithContext("path", cipherPath).
			WithContext("method", string(codec.Method()))
	}

	if err := os.WriteFile(outPath, plaintext, 0o600); err != nil {
		os.Remove(outPath)
		return NewDecryptionError("failed to write decrypted artifact", err).
			WithContext("path", outPath)
	}
	return nil
}

// deriveKey runs the iterated key-derivation function over the job's key
// material with the per-invocation salt.
func deriveKey(keyMaterial, salt []byte, length int) []byte {
	return pbkdf2.Key(keyMaterial, salt, kdfIterations, length, sha256.New)
}

// aesCBCCodec implements AES-256-CBC with an encrypt-then-MAC
// HMAC-SHA256 trailer. CBC itself has no integrity; the MAC covers the
// envelope header, IV and ciphertext.
type aesCBCCodec struct{}

func (c *aesCBCCodec) Method() CipherMethod { return CipherAES256CBC }
func (c *aesCBCCodec) methodByte() byte     { return methodByteAES }

func (c *aesCBCCodec) keys(keyMaterial, salt []byte) (encKey, macKey []byte) {
	derived := deriveKey(keyMaterial, salt, 64)
	return derived[:32], derived[32:]
}

func (c *aesCBCCodec) seal(keyMaterial, salt, header, plaintext []byte) ([]byte, error) {
	encKey, macKey := c.keys(keyMaterial, salt)

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}

	padded := padPKCS7(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	mac := hmac.New(sha256.New, macKey)
	mac.Write(header)
	mac.Write(iv)
	mac.Write(ciphertext)

	body := make([]byte, 0, len(iv)+len(ciphertext)+mac.Size())
	body = append(body, iv...)
	body = append(body, ciphertext...)
	body = append(body, mac.Sum(nil)...)
	return body, nil
}

func (c *aesCBCCodec) open(keyMaterial, salt, header, body []byte) ([]byte, error) {
	if len(body) < aes.BlockSize+sha256.Size || (len(body)-aes.BlockSize-sha256.Size)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("truncated aes-256-cbc body")
	}
	encKey, macKey := c.keys(keyMaterial, salt)

	iv := body[:aes.BlockSize]
	ciphertext := body[aes.BlockSize : len(body)-sha256.Size]
	tag := body[len(body)-sha256.Size:]

	mac := hmac.New(sha256.New, macKey)
	mac.Write(header)
	mac.Write(iv)
	mac.Write(ciphertext)
	if !hmac.Equal(tag, mac.Sum(nil)) {
		return nil, fmt.Errorf("hmac verification failed")
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	return unpadPKCS7(padded, aes.BlockSize)
}

// chaCha20Codec implements XChaCha20-Poly1305. The AEAD tag provides
// integrity; the envelope header is bound in as associated data.
type chaCha20Codec struct{}

func (c *chaCha20Codec) Method() CipherMethod { return CipherChaCha20 }
func (c *chaCha20Codec) methodByte() byte     { return methodByteCha }

func (c *chaCha20Codec) seal(keyMaterial, salt, header, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(deriveKey(keyMaterial, salt, chacha20poly1305.KeySize))
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, header), nil
}

func (c *chaCha20Codec) open(keyMaterial, salt, header, body []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(deriveKey(keyMaterial, salt, chacha20poly1305.KeySize))
	if err != nil {
		return nil, err
	}
	if len(body) < aead.NonceSize() {
		return nil, fmt.Errorf("truncated chacha20 body")
	}
	nonce, sealed := body[:aead.NonceSize()], body[aead.NonceSize():]
	return aead.Open(nil, nonce, sealed, header)
}

func padPKCS7(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(pad)}, pad)...)
}

func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length")
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockSize {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-pad], nil
}
