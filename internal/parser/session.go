package parser

import (
	"strings"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"

	"github.com/emurenMRz/mboxarchive/internal/config"
	"github.com/emurenMRz/mboxarchive/internal/mboxheader"
	"github.com/emurenMRz/mboxarchive/internal/mimetree"
)

type readMode int

const (
	modeHeader readMode = iota
	modeBody
	modeSkip // epilogue of a multipart
)

type headerKind int

const (
	headerTop headerKind = iota
	headerPart
	headerEmbedded
)

// session holds everything that lives for one message.
type session struct {
	p      *Parser
	policy *config.Policy
	lr     *LineReader

	envelope string
	fromDate string
	lines    int

	mode       readMode
	hkind      headerKind
	block      mboxheader.Block
	headerDone bool
	finishing  bool

	rec      *Record
	declared string // charset of the top-level Content-Type
	hint     string // charset seen in encoded words
	deleted  bool

	tree     *mimetree.Tree // nil for single-part messages
	stack    boundaryStack
	alt      AlternativeState
	embedded map[mimetree.PartID]AlternativeState
	cur      *partState
	cursor   mimetree.PartID
	parent   mimetree.PartID

	body     []mimetree.Segment
	trailing []*mimetree.AttachmentRef
	stored   []*mimetree.AttachmentRef
	names    map[string]int
	parts    int
	tooMany  bool
	warnings []*Error
}

func (p *Parser) newSession(lr *LineReader) *session {
	return &session{
		p:        p,
		policy:   p.Policy,
		lr:       lr,
		rec:      &Record{},
		alt:      newAlternativeState(p.Policy.SaveAlts),
		embedded: map[mimetree.PartID]AlternativeState{},
		cursor:   mimetree.NoPart,
		parent:   mimetree.NoPart,
		names:    map[string]int{},
	}
}

func (s *session) started() bool {
	return s.lines > 0
}

func (s *session) warn(kind Kind, err error, format string, args ...interface{}) {
	e := newError(kind, err, format, args...)
	s.warnings = append(s.warnings, e)
	grip.Debug(message.Fields{
		"message": e.Msg,
		"kind":    kind.String(),
		"msg":     s.p.num,
	})
}

// isSeparator reports whether line starts another message.
func (s *session) isSeparator(line string) bool {
	return !s.policy.ReadOne && mboxheader.IsSeparator(line)
}

// isEnvelope reports whether line is the envelope of a message. Before a
// message started any "From " line is taken, later only a full separator.
func (s *session) isEnvelope(line string) bool {
	if !strings.HasPrefix(line, "From ") {
		return false
	}
	if !s.started() && s.envelope == "" {
		return true
	}
	return s.isSeparator(line)
}

func (s *session) feed(line string) {
	s.lines++
	switch s.mode {
	case modeHeader:
		s.headerLine(line)
	case modeBody:
		s.bodyLine(line)
	default:
		if i, end, ok := s.stack.match(line); ok {
			s.boundary(i, end)
		}
	}
}

func (s *session) headerLine(line string) {
	trimmed := strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(trimmed) == "" {
		s.endHeader()
		return
	}
	if s.hkind != headerTop {
		// a part that ends inside its header
		if _, _, ok := s.stack.match(line); ok {
			s.lr.Unread(line)
			s.endHeader()
			return
		}
	}
	s.block.AddLine(trimmed)
}

func (s *session) endHeader() {
	fields := s.block.Fields()
	s.block = mboxheader.Block{}
	mboxheader.Validate(fields)
	switch s.hkind {
	case headerTop:
		s.headerDone = true
		s.topHeader(fields)
		s.beginPart(fields, mimetree.NoPart, true)
	case headerPart:
		s.decodeFields(fields, "")
		s.beginPart(fields, s.parent, false)
	case headerEmbedded:
		node := s.parent
		s.embeddedHeader(fields, node)
		s.beginPart(fields, node, false)
	}
}

func (s *session) bodyLine(line string) {
	if i, end, ok := s.stack.match(line); ok {
		s.boundary(i, end)
		return
	}
	if s.cur != nil {
		s.partLine(line)
	}
}

// boundary handles a boundary line of the frame at index i. Frames opened
// inside it are closed first.
func (s *session) boundary(i int, end bool) {
	for s.stack.depth()-1 > i {
		f := s.stack.top()
		s.warn(UnterminatedMultipart, nil, "boundary %q closed by an enclosing one", f.Boundary)
		s.closeTo(f.Node)
		s.popFrame()
	}
	f := s.stack.top()
	s.closeTo(f.Node)
	if end {
		s.popFrame()
		s.mode = modeSkip
		return
	}
	s.parts++
	s.parent = f.Node
	s.hkind = headerPart
	s.mode = modeHeader
}

// closeTo closes the current leaf and moves the cursor up to target,
// leaving every embedded message on the way.
func (s *session) closeTo(target mimetree.PartID) {
	s.closePart()
	if s.tree == nil {
		return
	}
	id := s.cursor
	for id != mimetree.NoPart && id != target {
		if saved, ok := s.embedded[id]; ok {
			s.alt = saved
			delete(s.embedded, id)
		}
		id = s.tree.Parent(id)
	}
	s.cursor = id
}

func (s *session) pushFrame(boundary, subtype string, node mimetree.PartID) {
	f := BoundaryFrame{Boundary: boundary, Subtype: subtype, Node: node, Snapshot: s.alt}
	s.stack.push(f)
	s.alt = s.alt.nested(subtype == "alternative")
	if s.p.onFrame != nil {
		s.p.onFrame(true, f, s.alt)
	}
}

func (s *session) popFrame() {
	f := s.stack.pop()
	s.alt = f.Snapshot
	if s.p.onFrame != nil {
		s.p.onFrame(false, f, s.alt)
	}
}

// finish closes whatever is still open and commits the record.
func (p *Parser) finish(s *session) {
	s.finishing = true
	if s.mode == modeHeader && (!s.headerDone || s.block.Len() > 0 || s.hkind != headerTop) {
		s.endHeader()
	}
	for s.stack.depth() > 0 {
		f := s.stack.top()
		s.warn(UnterminatedMultipart, nil, "boundary %q never closed", f.Boundary)
		s.closeTo(f.Node)
		s.popFrame()
	}
	s.closeTo(mimetree.NoPart)

	rec := s.rec
	rec.Num = p.num
	rec.FromDate = s.fromDate
	rec.Charset = s.messageCharset()
	if s.tree != nil {
		rec.Body = s.tree.Flatten()
	} else {
		rec.Body = s.body
		for _, ref := range s.trailing {
			rec.Body = append(rec.Body, mimetree.AttachmentSegment(ref))
		}
	}
	rec.Attachments = s.stored
	rec.Warnings = s.warnings

	p.stats.Messages++
	p.stats.Parts += s.parts + 1
	p.stats.Pushes += s.stack.pushes
	p.stats.Pops += s.stack.pops

	if _, ok := p.Records.Commit(rec); ok {
		p.num++
		p.stats.Committed++
	} else {
		p.stats.Rejected++
		for _, ref := range append([]*mimetree.AttachmentRef(nil), s.stored...) {
			s.cancel(ref)
		}
		rec.Attachments = nil
		grip.Info(message.Fields{
			"message": "record rejected",
			"kind":    DuplicateOrRejectedRecord.String(),
			"msgid":   rec.MsgID,
		})
	}

	if p.Mirror != nil {
		if err := p.Mirror.EndMessage(s.envelope); err != nil {
			grip.Warning(message.WrapError(err, message.Fields{
				"message": "could not end mirrored message",
				"msgid":   rec.MsgID,
			}))
		}
	}
}
