package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsCountedWhenSilent(t *testing.T) {
	InitReporter(LogLevelSilent)

	ReportCompileError("A.Mod", &TextPosition{StartLn: 3, StartCol: 4, EndLn: 3, EndCol: 8}, "undefined identifier: %s.", "x")
	ReportCompileWarning("A.Mod", nil, "unused variable.")
	ReportStdError("A.smb", errors.New("bad symbol file"))

	assert.True(t, AnyErrors())
	assert.Equal(t, 2, ErrorCount())
	assert.Equal(t, 1, WarningCount())

	msgs := Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "A.Mod:3:5: error: undefined identifier: x.", msgs[0].String())
	assert.False(t, msgs[1].IsError)
}

func TestInitReporterResets(t *testing.T) {
	InitReporter(LogLevelSilent)
	ReportCompileError("A.Mod", nil, "boom")
	require.True(t, AnyErrors())

	InitReporter(LogLevelSilent)
	assert.False(t, AnyErrors())
	assert.Empty(t, Messages())
}

func TestCatchErrors(t *testing.T) {
	InitReporter(LogLevelSilent)

	func() {
		defer CatchErrors("B.Mod")
		panic(Raise(&TextPosition{StartLn: 1}, "expected %s", "`;`"))
	}()

	msgs := Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "expected `;`", msgs[0].Message)
	assert.Equal(t, "B.Mod", msgs[0].File)
}

func TestTextPositionFromRange(t *testing.T) {
	start := &TextPosition{StartLn: 1, StartCol: 2, EndLn: 1, EndCol: 3}
	end := &TextPosition{StartLn: 4, StartCol: 0, EndLn: 5, EndCol: 7}

	assert.Equal(t, &TextPosition{StartLn: 1, StartCol: 2, EndLn: 5, EndCol: 7}, TextPositionFromRange(start, end))
	assert.Same(t, start, TextPositionFromRange(start, nil))
}

func TestTextPositionString(t *testing.T) {
	assert.Equal(t, "12:4", (&TextPosition{StartLn: 12, StartCol: 4, EndLn: 12, EndCol: 9}).String())
}
