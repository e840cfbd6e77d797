package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"uitvaartpay/internal/domain"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// moneyPayload is the only monetary shape accepted at the boundary:
// integer minor units plus an explicit currency code. A fractional amount
// fails JSON decoding outright.
type moneyPayload struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (m *moneyPayload) toMoney(field string) (domain.Money, error) {
	if m.Amount <= 0 {
		return domain.Money{}, &ValidationError{Field: field, Message: field + ".amount must be a positive integer of minor units"}
	}
	if len(m.Currency) != 3 {
		return domain.Money{}, &ValidationError{Field: field, Message: field + ".currency must be a 3-letter ISO code"}
	}
	return domain.NewMoney(m.Amount, m.Currency), nil
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &ValidationError{Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// badRequestOr writes a 400 for validation errors and defers everything
// else to the engine error mapping.
func badRequestOr(w http.ResponseWriter, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ErrorBadRequest(w, ve.Message)
		return
	}
	EngineError(w, err)
}
