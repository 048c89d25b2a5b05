package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  backend  ", Value: "  tfidf  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	require.Len(t, fields, 1)
	assert.Equal(t, "backend", fields[0].Key)
	assert.Equal(t, "tfidf", fields[0].String)

	assert.Empty(t, StringFields())
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	WithFields(logger, zap.String("foo", "bar")).Info("test log")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "bar", entries[0].ContextMap()["foo"])

	fallback := WithFields(nil, zap.String("baz", "qux"))
	require.NotNil(t, fallback)
	fallback.Info("another log")
}

func TestRunFields(t *testing.T) {
	fields := RunFields(" user-1 ", "run-1")
	require.Len(t, fields, 2)
	assert.Equal(t, FieldUserID, fields[0].Key)
	assert.Equal(t, "user-1", fields[0].String)
	assert.Equal(t, FieldRunID, fields[1].Key)

	assert.Empty(t, RunFields("", ""))
}

func TestWithRunFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithRunFields(zap.New(core), "user-1", "run-1").Info("run started")

	entries := observed.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "user-1", ctx[FieldUserID])
	assert.Equal(t, "run-1", ctx[FieldRunID])

	require.NotNil(t, WithRunFields(nil, "user-1", "run-1"))
}
