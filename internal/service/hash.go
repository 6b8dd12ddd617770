package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

// requestHash canonicalises a CreatePaymentRequest via its JSON encoding
// (struct field order is stable across encodings of the same type) and
// hashes it, so two requests with an identical body always compare equal
// regardless of transport-level whitespace or key ordering.
func requestHash(req model.CreatePaymentRequest) string {
	canonical, _ := json.Marshal(req)
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
