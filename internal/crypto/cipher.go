// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package crypto implements the record cipher for Lockbox: PBKDF2 key
// derivation plus AES-256-CBC with PKCS#7 padding. Every encryption draws a
// fresh salt and IV, so encrypting identical plaintext twice never produces
// identical blobs. The blob layout is salt[16] || iv[16] || ciphertext.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const ivSize = aes.BlockSize

// Payload kind tags. The tag is the first plaintext byte, so a decrypted
// blob describes its own shape instead of relying on the caller to assert it.
const (
	tagItems  byte = 0x01 // JSON-encoded map[string]string
	tagString byte = 0x02 // raw UTF-8 string
)

// ErrDecrypt is returned for any blob that cannot be decrypted: too short,
// invalid padding, unknown payload tag, or undecodable content. A wrong
// password and corrupted data are intentionally indistinguishable.
var ErrDecrypt = errors.New("cannot decrypt payload")

// Payload is the decrypted content of a record blob.
type Payload struct {
	Items map[string]string // set when the blob held an item map
	Value string            // set when the blob held a raw string
}

// IsItems reports whether the payload carried a structured item map.
func (p Payload) IsItems() bool { return p.Items != nil }

// EncryptItems serializes the item map and encrypts it under the password.
func EncryptItems(password string, items map[string]string) ([]byte, error) {
	body, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize items: %w", err)
	}
	return encrypt(password, tagItems, body)
}

// EncryptString encrypts a single raw string value under the password.
func EncryptString(password, value string) ([]byte, error) {
	return encrypt(password, tagString, []byte(value))
}

func encrypt(password string, tag byte, body []byte) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	block, err := aes.NewCipher(DeriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	plain := make([]byte, 0, 1+len(body))
	plain = append(plain, tag)
	plain = append(plain, body...)
	padded := pkcs7Pad(plain, aes.BlockSize)

	out := make([]byte, SaltSize+ivSize+len(padded))
	copy(out, salt)
	copy(out[SaltSize:], iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[SaltSize+ivSize:], padded)
	return out, nil
}

// Decrypt parses and decrypts a blob produced by EncryptItems or
// EncryptString. All failure modes surface as ErrDecrypt.
func Decrypt(password string, blob []byte) (*Payload, error) {
	if len(blob) < SaltSize+ivSize+aes.BlockSize {
		return nil, fmt.Errorf("%w: blob too short", ErrDecrypt)
	}
	salt := blob[:SaltSize]
	iv := blob[SaltSize : SaltSize+ivSize]
	ct := blob[SaltSize+ivSize:]
	if len(ct)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: truncated ciphertext", ErrDecrypt)
	}

	block, err := aes.NewCipher(DeriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	padded := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ct)

	plain, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		return nil, err
	}
	if len(plain) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrDecrypt)
	}

	tag, body := plain[0], plain[1:]
	switch tag {
	case tagItems:
		var items map[string]string
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("%w: malformed item payload", ErrDecrypt)
		}
		if items == nil {
			items = map[string]string{}
		}
		return &Payload{Items: items}, nil
	case tagString:
		return &Payload{Value: string(body)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown payload tag", ErrDecrypt)
	}
}

// pkcs7Pad appends 1..blockSize bytes, each holding the pad length.
func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

// pkcs7Unpad validates every padding byte. Invalid padding after decryption
// is the strong signal of a wrong password.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: invalid padded length", ErrDecrypt)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: invalid padding", ErrDecrypt)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: invalid padding", ErrDecrypt)
		}
	}
	return data[:len(data)-n], nil
}
