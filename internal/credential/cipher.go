// Package credential расшифровывает cookie authData, выпущенную внешней системой входа.
//
// Формат токена: hex(IV) + ":" + hex(ciphertext), AES-256-CBC с PKCS#7.
// Открытый текст — JSON {"auth":"true","username":..,"deviceName":..,"ipAddress":..}.
// Любая ошибка расшифровки или разбора отдаётся наружу одним ErrInvalidCredential,
// чтобы ответ не служил оракулом.
package credential

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/energydash/internal/logger"
)

// KeySize — длина ключа AES-256.
const KeySize = 32

const separator = ":"

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrNotAuthenticated  = errors.New("credential is not authenticated")
	ErrInvalidKey        = errors.New("credential key must be 32 raw bytes or 64 hex chars")
)

// Claim — содержимое расшифрованной cookie.
type Claim struct {
	Username   string
	DeviceName string
	IPAddress  string
	Auth       bool
}

// authFlag принимает строку "true" (так пишет система входа) и булево true.
type authFlag bool

func (f *authFlag) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"true"`, `true`:
		*f = true
	default:
		*f = false
	}
	return nil
}

// wireClaim — поля открытого текста. Ключи сверяются точно, с учётом регистра.
type wireClaim struct {
	Auth       authFlag
	Username   string
	DeviceName string
	IPAddress  string
}

// Порядок полей важен: первый блок шифротекста целиком покрывает {"auth":"true","
type sealedClaim struct {
	Auth       string `json:"auth"`
	Username   string `json:"username"`
	DeviceName string `json:"deviceName"`
	IPAddress  string `json:"ipAddress"`
}

// parseClaim разбирает JSON-объект. encoding/json сопоставляет поля структуры без учёта
// регистра, поэтому объект читается в map и поля берутся по точным ключам.
func parseClaim(plain []byte) (wireClaim, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(plain, &fields); err != nil {
		return wireClaim{}, err
	}
	var w wireClaim
	if raw, ok := fields["auth"]; ok {
		if err := w.Auth.UnmarshalJSON(raw); err != nil {
			return wireClaim{}, err
		}
	}
	for key, dst := range map[string]*string{
		"username":   &w.Username,
		"deviceName": &w.DeviceName,
		"ipAddress":  &w.IPAddress,
	} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return wireClaim{}, fmt.Errorf("%s: %w", key, err)
		}
	}
	return w, nil
}

// ParseKey разбирает общий ключ: 64 hex-символа или ровно 32 байта как есть.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s) == 2*KeySize {
		if k, err := hex.DecodeString(s); err == nil {
			return k, nil
		}
	}
	if len(s) == KeySize {
		return []byte(s), nil
	}
	return nil, ErrInvalidKey
}

type Cipher struct {
	block cipher.Block
}

func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("credential: %w", err)
	}
	return &Cipher{block: block}, nil
}

// Open расшифровывает токен и проверяет Claim.
// Возвращает ErrInvalidCredential либо ErrNotAuthenticated, без подробностей.
func (c *Cipher) Open(token string) (Claim, error) {
	plain, stage := c.decrypt(token)
	if stage != "" {
		logger.Debugf("credential: rejected at %s", stage)
		return Claim{}, ErrInvalidCredential
	}
	w, err := parseClaim(plain)
	if err != nil {
		logger.Debugf("credential: rejected at parse")
		return Claim{}, ErrInvalidCredential
	}
	if !w.Auth {
		return Claim{}, ErrNotAuthenticated
	}
	claim := Claim{
		Username:   w.Username,
		DeviceName: w.DeviceName,
		IPAddress:  w.IPAddress,
		Auth:       true,
	}
	if claim.Username == "" || claim.DeviceName == "" || claim.IPAddress == "" {
		logger.Debugf("credential: rejected at validate")
		return Claim{}, ErrInvalidCredential
	}
	return claim, nil
}

// decrypt возвращает открытый текст или непустое имя этапа, на котором токен отвергнут.
func (c *Cipher) decrypt(token string) ([]byte, string) {
	ivHex, ctHex, ok := strings.Cut(token, separator)
	if !ok || strings.Contains(ctHex, separator) {
		return nil, "shape"
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return nil, "iv"
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return nil, "ciphertext"
	}
	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plain, ct)
	plain, ok = unpad(plain)
	if !ok {
		return nil, "padding"
	}
	if !utf8.Valid(plain) {
		return nil, "utf8"
	}
	return plain, ""
}

// Seal шифрует Claim со случайным IV. Нужен утилите authtoken и тестам;
// в рабочем потоке сервис токены не выпускает.
func (c *Cipher) Seal(claim Claim) (string, error) {
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("credential: iv: %w", err)
	}
	return c.seal(claim, iv)
}

func (c *Cipher) seal(claim Claim, iv []byte) (string, error) {
	auth := "false"
	if claim.Auth {
		auth = "true"
	}
	plain, err := json.Marshal(sealedClaim{
		Auth:       auth,
		Username:   claim.Username,
		DeviceName: claim.DeviceName,
		IPAddress:  claim.IPAddress,
	})
	if err != nil {
		return "", fmt.Errorf("credential: marshal: %w", err)
	}
	plain = pad(plain)
	ct := make([]byte, len(plain))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(ct, plain)
	return hex.EncodeToString(iv) + separator + hex.EncodeToString(ct), nil
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, bool) {
	if len(b) == 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, false
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
