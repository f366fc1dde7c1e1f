package logging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/xtsmerge/pkg/logging"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Same(t, logging.Default(), logging.FromContext(nil))
}

func TestContextFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithSuite(ctx, "CTS")
	ctx = logging.WithRun(ctx, "/reports/cts/2024.01.01")
	ctx = logging.WithModule(ctx, "arm64-v8a CtsNetTestCases")
	ctx = logging.WithOperation(ctx, "reconcile")
	ctx = logging.WithFields(ctx, map[string]any{
		"runs":  3,
		"err":   errors.New("boom"),
		"names": []string{"a", "b"},
	})

	logging.FromContext(ctx).Info().Msg("done")

	tl.AssertContains(t, `"suite":"CTS"`)
	tl.AssertContains(t, `"run":"/reports/cts/2024.01.01"`)
	tl.AssertContains(t, `"module":"arm64-v8a CtsNetTestCases"`)
	tl.AssertContains(t, `"operation":"reconcile"`)
	tl.AssertContains(t, `"runs":3`)
	tl.AssertContains(t, `"error":"boom"`)
	tl.AssertContains(t, `"names":["a","b"]`)
	assert.Equal(t, 1, tl.Count())
}

func TestWithLoggerNil(t *testing.T) {
	ctx := logging.WithLogger(context.Background(), nil)
	assert.Same(t, logging.Default(), logging.FromContext(ctx))
}
