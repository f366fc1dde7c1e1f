package logging_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/xtsmerge/pkg/logging"
)

func TestNew(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New(buf)
	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, logging.OrNop(nil))

	tl := logging.NewTestLogger(t)
	assert.Same(t, tl.Logger, logging.OrNop(tl.Logger))
}

func TestCaptureLoggingForTest(t *testing.T) {
	tl := logging.CaptureLoggingForTest(t)
	logging.Default().Warn().Msg("captured")
	tl.AssertContains(t, "captured")
	tl.AssertNotContains(t, "missing")

	tl.Clear()
	assert.Equal(t, 0, tl.Count())
	assert.Empty(t, tl.Lines())
}
