package rpgerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors_CarryStableCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code Code
	}{
		{"config", Config("missing provider"), CodeConfig},
		{"not found", NotFound("node %s", "x"), CodeNotFound},
		{"validation", Validation("bad input"), CodeValidation},
		{"parse", Parse(errors.New("eof"), "parsing a.go"), CodeParse},
		{"llm", LLM(errors.New("timeout"), "calling backend"), CodeLLM},
		{"vcs", VCS(errors.New("no range"), "diffing"), CodeVCS},
		{"store", Store(errors.New("io"), "writing"), CodeStore},
		{"drift unavailable", DriftUnavailable("no embeddings"), CodeDriftUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, CodeOf(tc.err))
		})
	}
}

func TestCodeOf_UnknownErrorReturnsEmpty(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
}

func TestFormat_KnownAndUnknown(t *testing.T) {
	code, msg := Format(NotFound("node %s", "abc"))
	assert.Equal(t, "NOT_FOUND", code)
	assert.Contains(t, msg, "abc")

	code, msg = Format(errors.New("oops"))
	assert.Equal(t, "UNKNOWN", code)
	assert.Contains(t, msg, "oops")
}

func TestError_WrapsCauseIntoMessage(t *testing.T) {
	cause := errors.New("disk full")
	err := Store(cause, "writing node")
	assert.Equal(t, CodeStore, CodeOf(err))
	assert.Contains(t, err.Error(), "disk full")
}
