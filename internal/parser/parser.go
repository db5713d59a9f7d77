// Package parser turns a mailbox into message records. Each message is read
// in a single pass over its lines; the MIME structure is kept as a tree of
// parts that is flattened into the record body at the end of the message.
package parser

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"

	"github.com/emurenMRz/mboxarchive/internal/config"
	"github.com/emurenMRz/mboxarchive/internal/encword"
	"github.com/emurenMRz/mboxarchive/internal/i18n"
	"github.com/emurenMRz/mboxarchive/internal/mboxheader"
)

// Parser reads mailboxes according to a policy. A Parser is not safe for
// concurrent use; message numbers continue across calls to Parse.
type Parser struct {
	Policy      *config.Policy
	Records     RecordSink
	Attachments AttachmentSink // nil keeps no attachment data
	Mirror      Mirror         // optional
	Now         func() time.Time

	num     int
	stats   Stats
	words   encword.Decoder
	onFrame func(push bool, f BoundaryFrame, alt AlternativeState)
}

// New returns a parser committing to records. A nil policy selects the
// defaults.
func New(policy *config.Policy, records RecordSink) *Parser {
	if policy == nil {
		policy = config.Default()
	}
	return &Parser{
		Policy:  policy,
		Records: records,
		num:     policy.StartNum,
	}
}

func convertWord(charset string, data []byte) (string, bool) {
	out, err := i18n.Convert(data, charset)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// Next returns the number the next committed message gets.
func (p *Parser) Next() int {
	return p.num
}

func (p *Parser) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Parser) attachments() AttachmentSink {
	if p.Attachments == nil {
		return discardAttachment{}
	}
	return p.Attachments
}

// Parse reads every message of r. Malformed input is recovered from and
// reported on the records; the error is only about reading r.
func (p *Parser) Parse(r io.Reader) (Stats, error) {
	if p.Policy == nil {
		p.Policy = config.Default()
	}
	p.words.Convert = convertWord
	p.stats = Stats{}

	lr := NewLineReader(r, p.Policy.MaxLineLength, p.Mirror)
	s := p.newSession(lr)
	for {
		line, ok := lr.Next()
		if !ok {
			break
		}
		if !s.started() && s.envelope == "" && strings.TrimSpace(line) == "" {
			continue
		}
		if s.isEnvelope(line) {
			if s.started() {
				p.finish(s)
				s = p.newSession(lr)
			}
			s.envelope = line
			s.fromDate, _ = mboxheader.EnvelopeDate(line)
			continue
		}
		s.feed(line)
	}
	if s.started() {
		p.finish(s)
	}

	grip.Info(message.Fields{
		"message":   "mailbox parsed",
		"messages":  p.stats.Messages,
		"committed": p.stats.Committed,
		"rejected":  p.stats.Rejected,
		"lines":     lr.Lines(),
	})
	if err := lr.Err(); err != nil {
		return p.stats, errors.Wrap(err, "reading mailbox")
	}
	return p.stats, nil
}

// ParseFile parses the mailbox at path.
func (p *Parser) ParseFile(path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, newError(StreamOpenFailure, err, "opening %s", path)
	}
	defer f.Close()
	return p.Parse(f)
}
