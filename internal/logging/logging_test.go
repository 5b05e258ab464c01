package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("debug", "text").GetLevel())
	assert.Equal(t, logrus.WarnLevel, New("WARN", "text").GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("loud", "text").GetLevel())
}

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("info", "json", &buf)

	logger.WithField("symbol", "AAPL").Info("fetched")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "AAPL", line["symbol"])
	assert.Equal(t, "fetched", line["msg"])
}

func TestFromContext(t *testing.T) {
	fallback := logrus.New()
	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	entry := fallback.WithField("request_id", "abc")
	ctx := WithLogger(context.Background(), entry)
	assert.Same(t, entry, FromContext(ctx, fallback))
}
