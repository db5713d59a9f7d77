package archive

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-mbox"
	"github.com/pkg/errors"

	"github.com/emurenMRz/mboxarchive/internal/mboxheader"
)

// DefaultSender is written in the envelope of a message that came without
// one.
const DefaultSender = "MAILER-DAEMON"

// MboxMirror copies the parsed input to another mailbox. A verbatim mirror
// writes every line as read; a message mirror writes each message as a
// new mbox entry, with its own envelope and "From " lines escaped in the
// body.
type MboxMirror struct {
	w   io.Writer
	mw  *mbox.Writer
	buf bytes.Buffer
	Now func() time.Time
}

// NewMboxMirror returns a verbatim mirror, for input that already is a
// mailbox.
func NewMboxMirror(w io.Writer) *MboxMirror {
	return &MboxMirror{w: w}
}

// NewMessageMirror returns a mirror for single messages.
func NewMessageMirror(w io.Writer) *MboxMirror {
	return &MboxMirror{w: w, mw: mbox.NewWriter(w)}
}

func (m *MboxMirror) WriteLine(raw []byte) error {
	if m.mw == nil {
		_, err := m.w.Write(raw)
		return errors.Wrap(err, "writing mirror")
	}
	if m.buf.Len() == 0 && strings.HasPrefix(string(raw), "From ") {
		// the envelope is written again by EndMessage
		return nil
	}
	m.buf.Write(bytes.TrimSuffix(bytes.TrimSuffix(raw, []byte("\n")), []byte("\r")))
	m.buf.WriteByte('\n')
	return nil
}

func (m *MboxMirror) EndMessage(envelope string) error {
	if m.mw == nil {
		return nil
	}
	defer m.buf.Reset()
	sender, date := m.envelope(envelope)
	w, err := m.mw.CreateMessage(sender, date)
	if err != nil {
		return errors.Wrap(err, "creating mirrored message")
	}
	_, err = w.Write(m.buf.Bytes())
	return errors.Wrap(err, "writing mirrored message")
}

func (m *MboxMirror) envelope(line string) (string, time.Time) {
	sender := DefaultSender
	if f := strings.Fields(strings.TrimPrefix(line, "From ")); len(f) > 0 && strings.HasPrefix(line, "From ") {
		sender = f[0]
	}
	if d, ok := mboxheader.EnvelopeDate(line); ok {
		if t := mboxheader.ParseDate(d); !t.IsZero() {
			return sender, t
		}
	}
	if m.Now != nil {
		return sender, m.Now()
	}
	return sender, time.Now()
}

// Close finishes the last message of a message mirror. The underlying
// writer is not closed.
func (m *MboxMirror) Close() error {
	if m.mw == nil {
		return nil
	}
	return errors.Wrap(m.mw.Close(), "closing mirror")
}
