package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestErrorCarriesContextFieldsAndStack(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "payouts", Level: ParseLevel("debug"), Output: buf})
	orderID := uuid.New()

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithOrderID(ctx, orderID)
	log.Error(ctx, "settlement failed", errors.New("boom"))

	entry := decode(t, buf)
	assert.Equal(t, "payouts", entry["service"])
	assert.Equal(t, "req-123", entry[FieldRequestID])
	assert.Equal(t, orderID.String(), entry[FieldOrderID])
	assert.Equal(t, "boom", entry["error"])
	assert.NotEmpty(t, entry["stack"])
}

func TestWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	New(Options{Output: buf}).Warn(context.Background(), "quiet")
	assert.NotContains(t, buf.String(), `"stack"`)

	buf.Reset()
	New(Options{Output: buf, WarnStack: true}).Warn(context.Background(), "loud")
	assert.Contains(t, buf.String(), `"stack"`)
}

func TestFieldsDoNotLeakAcrossContexts(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Output: buf})
	seller := uuid.New()

	base := context.Background()
	sellerCtx := log.WithSellerID(base, seller)
	log.Info(base, "plain")
	assert.NotContains(t, buf.String(), seller.String())

	buf.Reset()
	log.Info(sellerCtx, "scoped")
	assert.Equal(t, seller.String(), decode(t, buf)[FieldSellerID])
}

func TestSensitiveFieldsAreRedacted(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Output: buf})

	ctx := log.WithFields(context.Background(), map[string]any{
		"confirmation_code": "ABC123",
		"Authorization":     "Bearer secret",
		"amount_cents":      int64(41000),
	})
	log.Info(ctx, "confirm delivery")

	assert.NotContains(t, buf.String(), "ABC123")
	assert.NotContains(t, buf.String(), "secret")
	entry := decode(t, buf)
	assert.Equal(t, redacted, entry["confirmation_code"])
	assert.Equal(t, float64(41000), entry["amount_cents"])
}

func TestDebugFilteredAtInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Output: buf, Level: ParseLevel("info")})
	log.Debug(context.Background(), "hidden")
	assert.Zero(t, buf.Len())
}

func TestParseLevelDefaults(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
}
