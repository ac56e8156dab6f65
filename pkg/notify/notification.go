// Package notify maintains the real-time notification socket for a signed
// in user: one connection, a keep-alive ping, reconnect after every close,
// and a short-lived list of received reminders.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Notification is a reminder pushed by the server.
type Notification struct {
	// ID is derived locally from the payload and the receipt time, so the
	// same server message received twice yields two notifications.
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	PetID          string    `json:"pet_id"`
	PetName        string    `json:"pet_name"`
	MedicationName string    `json:"medication_name,omitempty"`
	Dosage         string    `json:"dosage,omitempty"`
	ScheduledTime  string    `json:"scheduled_time"`
	ReceivedAt     time.Time `json:"received_at"`
}

// Notification types sent by the server.
const (
	TypeMedicationReminder = "medication_reminder"
	TypeFeedingReminder    = "feeding_reminder"
)

// wireMessage is an inbound frame.
type wireMessage struct {
	Type           string `json:"type"`
	PetID          flexID `json:"pet_id"`
	PetName        string `json:"pet_name"`
	MedicationName string `json:"medication_name"`
	Dosage         string `json:"dosage"`
	ScheduledTime  string `json:"scheduled_time"`
}

// flexID accepts a JSON number or string.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("pet_id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*f = flexID(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexID(n.String())
	return nil
}

// parseNotification decodes a non-keepalive frame. ok is false for
// anything that is not a JSON object.
func parseNotification(payload string, receivedAt time.Time) (Notification, bool) {
	raw := bytes.TrimSpace([]byte(payload))
	if len(raw) == 0 || raw[0] != '{' {
		return Notification{}, false
	}

	var msg wireMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Notification{}, false
	}

	n := Notification{
		Type:           msg.Type,
		PetID:          string(msg.PetID),
		PetName:        msg.PetName,
		MedicationName: msg.MedicationName,
		Dosage:         msg.Dosage,
		ScheduledTime:  msg.ScheduledTime,
		ReceivedAt:     receivedAt,
	}
	n.ID = fmt.Sprintf("%s-%s-%s-%d", n.Type, n.PetID, n.ScheduledTime, receivedAt.UnixNano())
	return n, true
}
