package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrThresholdRequired = errors.New("threshold is required")
	ErrInvalidAlert      = errors.New("invalid alert")
)

type AlertType string

const (
	AlertAbove AlertType = "Above"
	AlertBelow AlertType = "Below"
)

func ParseAlertType(s string) (AlertType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "above":
		return AlertAbove, true
	case "below":
		return AlertBelow, true
	}
	return "", false
}

// Notify lists the contact channels attached to an alert. Formats are not checked.
type Notify struct {
	Email    string `json:"email"`
	Telegram string `json:"telegram,omitempty"`
	Discord  string `json:"discord,omitempty"`
}

// Alert is a user-defined threshold watch. Alerts are append-only.
type Alert struct {
	ID        string    `json:"id"`
	Asset     string    `json:"asset"`
	Oracle    Oracle    `json:"oracle"`
	Threshold float64   `json:"threshold"`
	Type      AlertType `json:"type"`
	Notify    Notify    `json:"notify"`
	CreatedAt time.Time `json:"createdAt"`
}

// ParseThreshold reads a threshold as entered by a user. Empty and zero values
// are rejected with ErrThresholdRequired.
func ParseThreshold(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrThresholdRequired
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: threshold %q is not a number", ErrInvalidAlert, raw)
	}
	if v == 0 {
		return 0, ErrThresholdRequired
	}
	return v, nil
}

// NewAlert validates the user input and builds an Alert. The threshold is
// checked first so a missing threshold is always reported as such.
func NewAlert(id, asset, oracle, thresholdRaw, typ string, notify Notify, createdAt time.Time) (Alert, error) {
	threshold, err := ParseThreshold(thresholdRaw)
	if err != nil {
		return Alert{}, err
	}
	if strings.TrimSpace(asset) == "" {
		return Alert{}, fmt.Errorf("%w: asset is empty", ErrInvalidAlert)
	}
	o, ok := ParseOracle(oracle)
	if !ok {
		return Alert{}, fmt.Errorf("%w: unknown oracle %q", ErrInvalidAlert, oracle)
	}
	t, ok := ParseAlertType(typ)
	if !ok {
		return Alert{}, fmt.Errorf("%w: unknown type %q", ErrInvalidAlert, typ)
	}
	return Alert{
		ID:        id,
		Asset:     asset,
		Oracle:    o,
		Threshold: threshold,
		Type:      t,
		Notify:    notify,
		CreatedAt: createdAt,
	}, nil
}
