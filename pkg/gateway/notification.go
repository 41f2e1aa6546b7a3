package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// Notification is a gateway push about one session.
type Notification struct {
	EventID       string
	SessionID     string
	Status        string
	TransactionID string
	Nonce         string
	Amount        int64
}

// NotificationParser authenticates and decodes an inbound notification request.
// body is the already-read request body.
type NotificationParser interface {
	ParseNotification(r *http.Request, body []byte) (*Notification, error)
}

// flexAmount accepts amounts sent either as JSON numbers or strings.
type flexAmount int64

func (f *flexAmount) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexAmount(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexAmount(v)
	return nil
}

type arifPayNotification struct {
	UUID              string     `json:"uuid"`
	SessionID         string     `json:"sessionId"`
	Nonce             string     `json:"nonce"`
	Status            string     `json:"status"`
	TransactionStatus string     `json:"transactionStatus"`
	TotalAmount       flexAmount `json:"totalAmount"`
	TransactionID     string     `json:"transactionId"`
	Transaction       *struct {
		TransactionID     string `json:"transactionId"`
		TransactionStatus string `json:"transactionStatus"`
	} `json:"transaction"`
}

// ParseNotification decodes an ArifPay notify callback. ArifPay does not sign its
// callbacks; authenticity comes from the nonce and a status re-check.
func (a *ArifPay) ParseNotification(_ *http.Request, body []byte) (*Notification, error) {
	return parseArifPayNotification(body)
}

func parseArifPayNotification(body []byte) (*Notification, error) {
	var in arifPayNotification
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, fmt.Errorf("%w: notification is not valid JSON", ErrProtocol)
	}

	n := &Notification{
		SessionID:     firstNonEmpty(in.SessionID, in.UUID),
		Status:        firstNonEmpty(in.TransactionStatus, in.Status),
		TransactionID: in.TransactionID,
		Nonce:         in.Nonce,
		Amount:        int64(in.TotalAmount),
	}
	if in.Transaction != nil {
		n.TransactionID = firstNonEmpty(n.TransactionID, in.Transaction.TransactionID)
		n.Status = firstNonEmpty(n.Status, in.Transaction.TransactionStatus)
	}
	if n.SessionID == "" {
		return nil, fmt.Errorf("%w: notification has no session ID", ErrInvalidRequest)
	}
	return n, nil
}
