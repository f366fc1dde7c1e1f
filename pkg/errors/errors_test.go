package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := pkgerrors.NewNotFoundError("suite", "CTS")
		assert.Equal(t, "suite with ID CTS not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped", func(t *testing.T) {
		err := fmt.Errorf("bundle check: %w", pkgerrors.NewNotFoundError("suite", "CTS"))
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestMalformedInputError(t *testing.T) {
	t.Run("with location", func(t *testing.T) {
		err := pkgerrors.NewMalformedInputError("arm64-v8a CtsNetTestCases", "Foo#bar", "failed case without detail")
		assert.Contains(t, err.Error(), "module arm64-v8a CtsNetTestCases")
		assert.Contains(t, err.Error(), "case Foo#bar")
		assert.Contains(t, err.Error(), "failed case without detail")
		assert.True(t, pkgerrors.IsMalformedInput(err))
		assert.False(t, pkgerrors.IsInvariantViolation(err))
	})

	t.Run("without location", func(t *testing.T) {
		err := &pkgerrors.MalformedInputError{Message: "summary pass count mismatch"}
		assert.Equal(t, "malformed input: summary pass count mismatch", err.Error())
	})

	t.Run("source only", func(t *testing.T) {
		err := &pkgerrors.MalformedInputError{Source: "/reports/cts/1", Message: "duplicate module"}
		assert.Contains(t, err.Error(), "source /reports/cts/1")
	})

	t.Run("unwrap", func(t *testing.T) {
		base := errors.New("boom")
		err := &pkgerrors.MalformedInputError{Message: "x", Err: base}
		assert.Equal(t, base, err.Unwrap())
		assert.True(t, errors.Is(err, base))
	})
}

func TestNoValidRunError(t *testing.T) {
	err := pkgerrors.NewNoValidRunError("GTS")
	assert.Equal(t, "no valid run for suite GTS", err.Error())
	assert.True(t, pkgerrors.IsNoValidRun(err))

	assert.Equal(t, "no valid run", pkgerrors.NewNoValidRunError("").Error())
}

func TestInvariantError(t *testing.T) {
	t.Run("formatted", func(t *testing.T) {
		err := pkgerrors.NewInvariantError("case tally total", "total %d != %d", 3, 4)
		assert.Contains(t, err.Error(), `"case tally total"`)
		assert.Contains(t, err.Error(), "total 3 != 4")
		assert.True(t, pkgerrors.IsInvariantViolation(err))
	})

	t.Run("wrap helper", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("case record", "m::c")
		err := pkgerrors.WrapInvariant("failed subset", base)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsInvariantViolation(err))
		assert.True(t, pkgerrors.IsNotFound(err))

		assert.Nil(t, pkgerrors.WrapInvariant("x", nil))
	})
}

func TestInvalidArgumentError(t *testing.T) {
	err := pkgerrors.NewInvalidArgumentError("ModuleTally.Update", "need at least %d counts, got %d", 2, 1)
	assert.Equal(t, "invalid argument to ModuleTally.Update: need at least 2 counts, got 1", err.Error())
	assert.True(t, pkgerrors.IsInvalidArgument(err))
	assert.False(t, pkgerrors.IsMalformedInput(err))
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("logger", nil, "cannot be nil")
		assert.Equal(t, "validation failed for field logger: cannot be nil", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "empty"}
		assert.Equal(t, "validation failed: empty", err.Error())
	})
}

func TestConfigError(t *testing.T) {
	base := errors.New("bad yaml")
	err := pkgerrors.NewConfigError("loader", "cannot read config", base)
	assert.Contains(t, err.Error(), "loader")
	assert.Equal(t, base, err.Unwrap())

	bare := &pkgerrors.ConfigError{Message: "missing"}
	assert.Equal(t, "configuration error: missing", bare.Error())
}

func TestParseError(t *testing.T) {
	t.Run("with file", func(t *testing.T) {
		err := pkgerrors.NewParseError("xml", "test_result.xml", "unexpected EOF", nil)
		assert.Equal(t, "parse error in xml file test_result.xml: unexpected EOF", err.Error())
	})

	t.Run("format only", func(t *testing.T) {
		err := &pkgerrors.ParseError{Format: "json", Message: "syntax error"}
		assert.Equal(t, "json parse error: syntax error", err.Error())
	})

	t.Run("counts as malformed input", func(t *testing.T) {
		err := pkgerrors.WrapParse("json", "PropertyDeviceInfo.deviceinfo.json", errors.New("bad"))
		assert.True(t, pkgerrors.IsMalformedInput(err))

		assert.Nil(t, pkgerrors.WrapParse("xml", "f", nil))
	})
}

func TestIOError(t *testing.T) {
	base := errors.New("permission denied")
	err := pkgerrors.WrapIO("extract", "/tmp/cts.zip", base)
	require.Error(t, err)

	var ioErr *pkgerrors.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "extract", ioErr.Operation)
	assert.Equal(t, "/tmp/cts.zip", ioErr.Path)
	assert.Equal(t, base, ioErr.Unwrap())
	assert.Contains(t, err.Error(), "permission denied")

	assert.Nil(t, pkgerrors.WrapIO("read", "x", nil))

	noPath := pkgerrors.NewIOError("walk", "", base)
	assert.Equal(t, "IO error during walk: permission denied", noPath.Error())
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		pkgerrors.ErrNotFound,
		pkgerrors.ErrInvalidInput,
		pkgerrors.ErrMalformedInput,
		pkgerrors.ErrNoValidRun,
		pkgerrors.ErrInvariantViolation,
		pkgerrors.ErrInvalidArgument,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}
