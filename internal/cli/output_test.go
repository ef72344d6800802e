package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	err := NewExitError(ExitFailure, "it failed")
	assert.Equal(t, "it failed", err.Error())
	assert.Equal(t, ExitFailure, GetExitCode(err))

	wrapped := WrapExitError(ExitCommandError, "outer", errors.New("inner"))
	assert.Equal(t, "outer: inner", wrapped.Error())
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.EqualError(t, errors.Unwrap(wrapped), "inner")
}

func TestGetExitCode_PlainError(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestGetExitCode_WrappedExitError(t *testing.T) {
	inner := NewExitError(ExitCommandError, "bad dir")
	outer := fmt.Errorf("context: %w", inner)
	assert.Equal(t, ExitCommandError, GetExitCode(outer))
}

func TestFormatterSuccess_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]string{"hello": "world"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestFormatterError_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Error("E124", "duplicate rule", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E124", resp.Error.Code)
	assert.Equal(t, "duplicate rule", resp.Error.Message)
}

func TestFormatterError_Text(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Error("INVALID_TRANSITION", "no rule matches", nil))
	assert.Contains(t, buf.String(), "Error [INVALID_TRANSITION]: no rule matches")
}

func TestVerboseLog(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut, Verbose: true}

	f.VerboseLog("loaded %d rules", 7)
	assert.Empty(t, out.String(), "verbose output must not corrupt stdout JSON")
	assert.Contains(t, errOut.String(), "loaded 7 rules")
}

func TestVerboseLog_Disabled(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf, Verbose: false}

	f.VerboseLog("should not appear")
	assert.Empty(t, buf.String())
}
