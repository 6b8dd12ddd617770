package service

import (
	"strings"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

// buildContext derives the issuing bank from the request's instrument:
// the card BIN (first six digits), the UPI handle suffix, or the
// netbanking bank code, matching the reference implementation's
// per-instrument derivation.
func buildContext(req model.CreatePaymentRequest, clientIP, userAgent string) model.PaymentContext {
	return model.PaymentContext{
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		MerchantID:  req.MerchantID,
		CustomerID:  req.CustomerID,
		Method:      req.PaymentMethod,
		IssuingBank: issuingBank(req),
		ClientIP:    clientIP,
		UserAgent:   userAgent,
	}
}

func issuingBank(req model.CreatePaymentRequest) string {
	switch req.PaymentMethod {
	case model.MethodCard:
		if len(req.Instrument.CardNumber) >= 6 {
			return "BIN:" + req.Instrument.CardNumber[:6]
		}
	case model.MethodUPI:
		if idx := strings.LastIndex(req.Instrument.VPA, "@"); idx >= 0 && idx+1 < len(req.Instrument.VPA) {
			return strings.ToUpper(req.Instrument.VPA[idx+1:])
		}
	case model.MethodNetbanking:
		if req.Instrument.BankCode != "" {
			return strings.ToUpper(req.Instrument.BankCode)
		}
	}
	return ""
}
