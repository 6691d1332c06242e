package handler

import (
	"encoding/json"
	"net/http"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Notifier pushes an event to everyone listening on a topic. Satisfied
// by *ws.Hub; handlers never touch the hub internals.
type Notifier interface {
	Broadcast(topic string, eventType string, payload any)
}

// nopNotifier is used when no hub is wired, e.g. in tests.
type nopNotifier struct{}

func (nopNotifier) Broadcast(topic string, eventType string, payload any) {}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("encode JSON response")
	}
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
