package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineMirror struct {
	lines     []string
	envelopes []string
}

func (m *lineMirror) WriteLine(raw []byte) error {
	m.lines = append(m.lines, string(raw))
	return nil
}

func (m *lineMirror) EndMessage(envelope string) error {
	m.envelopes = append(m.envelopes, envelope)
	return nil
}

func TestLineReader(t *testing.T) {
	m := &lineMirror{}
	lr := NewLineReader(strings.NewReader("a\r\nb\nc"), 0, m)

	line, ok := lr.Next()
	require.True(t, ok)
	assert.Equal(t, "a\r\n", line)

	line, ok = lr.Next()
	require.True(t, ok)
	assert.Equal(t, "b\n", line)
	lr.Unread(line)

	line, ok = lr.Next()
	require.True(t, ok)
	assert.Equal(t, "b\n", line)

	line, ok = lr.Next()
	require.True(t, ok)
	assert.Equal(t, "c", line)

	_, ok = lr.Next()
	assert.False(t, ok)
	assert.NoError(t, lr.Err())
	assert.Equal(t, 3, lr.Lines())
	assert.Equal(t, []string{"a\r\n", "b\n", "c"}, m.lines)
}

func TestLineReaderSplitsLongLines(t *testing.T) {
	lr := NewLineReader(strings.NewReader(strings.Repeat("x", 40)+"\n"), 16, nil)
	var got []string
	for {
		line, ok := lr.Next()
		if !ok {
			break
		}
		got = append(got, line)
	}
	require.Len(t, got, 3)
	assert.Equal(t, strings.Repeat("x", 16), got[0])
	assert.Equal(t, strings.Repeat("x", 16), got[1])
	assert.Equal(t, strings.Repeat("x", 8)+"\n", got[2])
}

func TestParseMirrorsInput(t *testing.T) {
	input := mailbox(
		"From a@example.com Mon Jan  1 10:00:00 2024",
		"From: a@example.com",
		"Message-ID: <1@example.com>",
		"Content-Type: multipart/mixed; boundary=A",
		"",
		"--A",
		"",
		"part",
		"--A--",
		"From b@example.com Tue Jan  2 10:00:00 2024",
		"From: b@example.com",
		"Message-ID: <2@example.com>",
		"",
		"second",
	)
	m := &lineMirror{}
	f := newFixture(nil)
	f.parser.Mirror = m
	recs := f.parse(t, input)
	require.Len(t, recs, 2)
	assert.Equal(t, input, strings.Join(m.lines, ""))
	assert.Equal(t, []string{
		"From a@example.com Mon Jan  1 10:00:00 2024\n",
		"From b@example.com Tue Jan  2 10:00:00 2024\n",
	}, m.envelopes)
}
