package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomToken 生成一个 URL 安全的随机令牌，长度为 n 字节的十六进制编码
func RandomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("generate random token failed")
	}
	return hex.EncodeToString(buf)
}
