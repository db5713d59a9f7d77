package archive

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-mbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emurenMRz/mboxarchive/internal/config"
	"github.com/emurenMRz/mboxarchive/internal/mimetree"
	"github.com/emurenMRz/mboxarchive/internal/parser"
)

func TestMemoryStoreRejectsDuplicates(t *testing.T) {
	s := NewMemoryStore()
	h, ok := s.Commit(&parser.Record{MsgID: "a@x"})
	require.True(t, ok)
	assert.Equal(t, parser.RecordHandle(0), h)

	_, ok = s.Commit(&parser.Record{MsgID: "a@x"})
	assert.False(t, ok)

	h, ok = s.Commit(&parser.Record{MsgID: "b@x"})
	require.True(t, ok)
	assert.Equal(t, 2, s.Len())

	r, ok := s.Get(h)
	require.True(t, ok)
	assert.Equal(t, "b@x", r.MsgID)
	_, ok = s.Get(5)
	assert.False(t, ok)

	r, ok = s.ByID("a@x")
	require.True(t, ok)
	assert.Equal(t, "a@x", r.MsgID)
	assert.Len(t, s.Records(), 2)
}

func TestDirAttachments(t *testing.T) {
	dir := t.TempDir()
	d := &DirAttachments{Dir: dir, URL: "/att", UseMeta: true}

	ref, err := d.Store(&parser.Attachment{
		Msg:         3,
		Name:        "a b.txt",
		ContentType: "text/plain",
		Charset:     "iso-8859-1",
		Data:        []byte("hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "att-0003", "a b.txt"), ref.Path)
	assert.Equal(t, "/att/att-0003/a%20b.txt", ref.Link)
	assert.Equal(t, 5, ref.Size)

	data, err := os.ReadFile(ref.Path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	meta, err := os.ReadFile(ref.MetaPath)
	require.NoError(t, err)
	assert.Equal(t, "Content-Type: text/plain; charset=\"iso-8859-1\"\n", string(meta))

	require.NoError(t, d.Cancel(ref))
	_, err = os.Stat(ref.Path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "att-0003"))
	assert.True(t, os.IsNotExist(err))

	// cancelling twice is harmless
	assert.NoError(t, d.Cancel(ref))
}

func TestMemoryAttachments(t *testing.T) {
	m := NewMemoryAttachments()
	ref, err := m.Store(&parser.Attachment{Msg: 1, Name: "x.bin", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "att-0001/x.bin", ref.Path)

	a, ok := m.Get(ref.Path)
	require.True(t, ok)
	assert.Equal(t, []byte{1}, a.Data)

	require.NoError(t, m.Cancel(ref))
	assert.Equal(t, 0, m.Len())
	assert.Error(t, m.Cancel(ref))
}

func TestParseIntoArchive(t *testing.T) {
	input := strings.Join([]string{
		"From a@example.com Mon Jan  1 10:00:00 2024",
		"From: a@example.com",
		"Message-ID: <1@example.com>",
		"Content-Type: multipart/mixed; boundary=A",
		"",
		"--A",
		"",
		"hello",
		"--A",
		"Content-Type: application/octet-stream; name=blob.bin",
		"Content-Transfer-Encoding: base64",
		"",
		"AAEC",
		"--A--",
		"From a@example.com Mon Jan  1 11:00:00 2024",
		"From: a@example.com",
		"Message-ID: <1@example.com>",
		"Content-Type: application/octet-stream; name=dup.bin",
		"",
		"dup",
		"",
	}, "\n")

	dir := t.TempDir()
	store := NewMemoryStore()
	p := parser.New(config.Default(), store)
	p.Attachments = &DirAttachments{Dir: dir}
	stats, err := p.Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Committed)
	assert.Equal(t, 1, stats.Rejected)

	require.Equal(t, 1, store.Len())
	r, _ := store.Get(0)
	require.Len(t, r.Attachments, 1)
	data, err := os.ReadFile(r.Attachments[0].Path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, data)

	// the duplicate's attachment was removed again
	_, err = os.Stat(filepath.Join(dir, "att-0001"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, mimetree.SegmentAttachment, r.Body[len(r.Body)-1].Kind)
}

func TestVerbatimMirror(t *testing.T) {
	var buf bytes.Buffer
	m := NewMboxMirror(&buf)
	require.NoError(t, m.WriteLine([]byte("From a@x Mon Jan  1 10:00:00 2024\n")))
	require.NoError(t, m.WriteLine([]byte("Subject: x\n")))
	require.NoError(t, m.EndMessage("From a@x Mon Jan  1 10:00:00 2024\n"))
	require.NoError(t, m.Close())
	assert.Equal(t, "From a@x Mon Jan  1 10:00:00 2024\nSubject: x\n", buf.String())
}

func TestMessageMirror(t *testing.T) {
	var buf bytes.Buffer
	m := NewMessageMirror(&buf)
	m.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	store := NewMemoryStore()
	policy := config.Default()
	policy.ReadOne = true
	p := parser.New(policy, store)
	p.Mirror = m
	_, err := p.Parse(strings.NewReader("From: a@example.com\nSubject: hi\n\nbody text\n"))
	require.NoError(t, err)
	require.NoError(t, m.Close())

	assert.True(t, strings.HasPrefix(buf.String(), "From "+DefaultSender+" "), buf.String())

	r := mbox.NewReader(&buf)
	msg, err := r.NextMessage()
	require.NoError(t, err)
	data, err := io.ReadAll(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Subject: hi")
	assert.Contains(t, string(data), "body text")

	_, err = r.NextMessage()
	assert.Equal(t, io.EOF, err)
}
