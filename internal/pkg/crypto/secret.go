/**
 * 工具类:凭据加密
 * @description: AI后端API密钥的对称加密封装
 * @func: Seal加密/Open解密
 */
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// SecretSealer 凭据加密器
// 使用 nacl/secretbox (XSalsa20-Poly1305) 加密API密钥，
// 数据库中只保存密文，明文只在调用AI后端的瞬间存在于内存
type SecretSealer struct {
	key [32]byte
}

// NewSecretSealer 创建凭据加密器
// keyBase64 是32字节密钥的base64编码(配置 security.credential_key)
func NewSecretSealer(keyBase64 string) (*SecretSealer, error) {
	raw, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("credential key is not valid base64: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("credential key must be 32 bytes, got %d", len(raw))
	}

	s := &SecretSealer{}
	copy(s.key[:], raw)
	return s, nil
}

// Seal 加密明文，返回base64编码的密文(随机nonce前置)
func (s *SecretSealer) Seal(plaintext string) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open 解密Seal产生的密文
func (s *SecretSealer) Open(sealedBase64 string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(sealedBase64)
	if err != nil {
		return "", fmt.Errorf("sealed credential is not valid base64: %w", err)
	}
	if len(sealed) < 24 {
		return "", fmt.Errorf("sealed credential too short")
	}

	var nonce [24]byte
	copy(nonce[:], sealed[:24])

	plaintext, ok := secretbox.Open(nil, sealed[24:], &nonce, &s.key)
	if !ok {
		return "", fmt.Errorf("failed to decrypt credential")
	}

	return string(plaintext), nil
}

// GenerateKey 生成新的32字节密钥并返回base64编码
// 供部署时初始化 security.credential_key 使用
func GenerateKey() (string, error) {
	var key [32]byte
	if _, err := rand.Read(key[:]); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key[:]), nil
}
