package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAlertThreshold(t *testing.T) {
	now := time.Now()
	for _, raw := range []string{"", "  ", "0", "0.0"} {
		_, err := NewAlert("id", "BTC", "Pyth", raw, "Above", Notify{}, now)
		assert.ErrorIs(t, err, ErrThresholdRequired, "threshold %q", raw)
	}

	_, err := NewAlert("id", "BTC", "Pyth", "abc", "Above", Notify{}, now)
	assert.ErrorIs(t, err, ErrInvalidAlert)
}

func TestNewAlertThresholdCheckedFirst(t *testing.T) {
	_, err := NewAlert("id", "", "nope", "", "sideways", Notify{}, time.Now())
	assert.ErrorIs(t, err, ErrThresholdRequired)
}

func TestNewAlertValidation(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name, asset, oracle, typ string
	}{
		{"empty asset", " ", "Pyth", "Above"},
		{"unknown oracle", "BTC", "Chainlink", "Above"},
		{"unknown type", "BTC", "Pyth", "Sideways"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAlert("id", tt.asset, tt.oracle, "10", tt.typ, Notify{}, now)
			assert.ErrorIs(t, err, ErrInvalidAlert)
		})
	}
}

func TestNewAlertOK(t *testing.T) {
	now := time.Now()
	a, err := NewAlert("a1", "bitcoin", "redstone", "65000.5", "below",
		Notify{Email: "a@b.c", Telegram: "@me"}, now)
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", a.Asset)
	assert.Equal(t, OracleRedStone, a.Oracle)
	assert.Equal(t, 65000.5, a.Threshold)
	assert.Equal(t, AlertBelow, a.Type)
	assert.Equal(t, "@me", a.Notify.Telegram)
	assert.Equal(t, now, a.CreatedAt)
}
