package mpesa

import (
	"encoding/json"
	"strconv"
)

// ParseCallback validates the callback envelope Daraja POSTs after a push
// resolves. A payload without the inner stkCallback object returns
// ErrInvalidEnvelope; the webhook handler acknowledges and stops on it.
func ParseCallback(body []byte) (*CallbackResult, error) {
	var env callbackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, ErrInvalidEnvelope
	}

	cb := env.Body.STKCallback
	if cb == nil {
		return nil, ErrInvalidEnvelope
	}

	result := &CallbackResult{
		Success:           cb.ResultCode == 0,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
		CheckoutRequestID: cb.CheckoutRequestID,
		MerchantRequestID: cb.MerchantRequestID,
	}

	// Metadata items only accompany successful payments.
	if cb.ResultCode == 0 && cb.CallbackMetadata != nil {
		meta := &CallbackMetadata{}
		for _, item := range cb.CallbackMetadata.Item {
			switch item.Name {
			case "Amount":
				_ = json.Unmarshal(item.Value, &meta.Amount)
			case "MpesaReceiptNumber":
				_ = json.Unmarshal(item.Value, &meta.ReceiptNumber)
			case "TransactionDate":
				_ = json.Unmarshal(item.Value, &meta.TransactionDate)
			case "PhoneNumber":
				// Daraja sends the payer msisdn as a number.
				var asNumber int64
				if err := json.Unmarshal(item.Value, &asNumber); err == nil {
					meta.PhoneNumber = formatMsisdn(asNumber)
				} else {
					_ = json.Unmarshal(item.Value, &meta.PhoneNumber)
				}
			}
		}
		result.Metadata = meta
	}

	return result, nil
}

// formatMsisdn rebuilds the 254-prefixed form from the numeric msisdn.
func formatMsisdn(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) >= 9 {
		return "254" + s[len(s)-9:]
	}
	return s
}
