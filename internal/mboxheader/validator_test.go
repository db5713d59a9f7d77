package mboxheader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLine(t *testing.T) {
	cases := []struct {
		line string
		ok   bool
	}{
		{"Subject: hello", true},
		{"Subject:\thello", true},
		{"X-Thing: a", true},
		{"Subject:hello", false},
		{"Subject:", false},
		{"Subject:    ", false},
		{": value", false},
		{"no colon here", false},
		{"Sübject: hello", false},
		{"Two Words: hello", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, ValidateLine(c.line), c.line)
	}
}

func TestValidateHeaders(t *testing.T) {
	fields := ParseBlock("From: not an address <<<\nSubject: hi\ngarbage\n")
	results := ValidateHeaders(fields, 3)

	byField := map[string]string{}
	for _, r := range results {
		assert.Equal(t, 3, r.MsgIndex)
		byField[r.Field] = r.Status
	}
	assert.Equal(t, StatusInvalid, byField["garbage"])
	assert.Equal(t, StatusMissing, byField["date"])
	assert.Equal(t, StatusMissing, byField["message-id"])
	assert.Equal(t, StatusInvalid, byField["From"])
}

func TestValidateHeadersClean(t *testing.T) {
	fields := ParseBlock("From: Ann <ann@example.com>\nDate: Mon, 1 Jan 2024 10:00:00 +0000\nMessage-ID: <1@example.com>\n")
	assert.Empty(t, ValidateHeaders(fields, 0))
}
