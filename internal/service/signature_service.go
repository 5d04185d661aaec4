package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

// HMACSignatureService signs payloads with HMAC-SHA256. Card CVVs are derived
// from these signatures.
type HMACSignatureService struct{}

func NewHMACSignatureService() *HMACSignatureService {
	return &HMACSignatureService{}
}

// Sign returns the lowercase hex MAC of payload.
func (s *HMACSignatureService) Sign(secretKey string, payload string) string {
	return hex.EncodeToString(macOf(secretKey, payload))
}

// Verify decodes signature and compares the raw MACs in constant time.
func (s *HMACSignatureService) Verify(secretKey string, payload string, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(macOf(secretKey, payload), got)
}

func macOf(secretKey, payload string) []byte {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

// digitsFromSignature reads a hex signature as an unsigned integer and
// returns its leading n decimal digits, zero-padded on the left.
func digitsFromSignature(signature string, n int) string {
	v, ok := new(big.Int).SetString(signature, 16)
	if !ok {
		v = new(big.Int)
	}
	digits := v.String()
	for len(digits) < n {
		digits = "0" + digits
	}
	return digits[:n]
}
