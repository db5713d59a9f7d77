package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/emurenMRz/mboxarchive/internal/config"
	"github.com/emurenMRz/mboxarchive/internal/mimetree"
)

type recordList struct {
	records []*Record
	ids     map[string]bool
}

func (l *recordList) Commit(r *Record) (RecordHandle, bool) {
	if l.ids == nil {
		l.ids = map[string]bool{}
	}
	if l.ids[r.MsgID] {
		return 0, false
	}
	l.ids[r.MsgID] = true
	l.records = append(l.records, r)
	return RecordHandle(len(l.records) - 1), true
}

type attachmentList struct {
	stored    []*Attachment
	cancelled []*mimetree.AttachmentRef
}

func (l *attachmentList) Store(a *Attachment) (*mimetree.AttachmentRef, error) {
	l.stored = append(l.stored, a)
	return &mimetree.AttachmentRef{
		Path:        a.Name,
		Name:        a.Name,
		ContentType: a.ContentType,
		Size:        len(a.Data),
	}, nil
}

func (l *attachmentList) Cancel(ref *mimetree.AttachmentRef) error {
	l.cancelled = append(l.cancelled, ref)
	return nil
}

type fixture struct {
	parser      *Parser
	records     *recordList
	attachments *attachmentList
	stats       Stats
}

func newFixture(policy *config.Policy) *fixture {
	if policy == nil {
		policy = config.Default()
	}
	f := &fixture{records: &recordList{}, attachments: &attachmentList{}}
	f.parser = New(policy, f.records)
	f.parser.Attachments = f.attachments
	f.parser.Now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) parse(t *testing.T, input string) []*Record {
	t.Helper()
	stats, err := f.parser.Parse(strings.NewReader(input))
	require.NoError(t, err)
	f.stats = stats
	return f.records.records
}

// mailbox joins lines with newlines.
func mailbox(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func countWarnings(r *Record, kind Kind) int {
	n := 0
	for _, w := range r.Warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}
