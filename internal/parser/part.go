package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"

	"github.com/emurenMRz/mboxarchive/internal/config"
	"github.com/emurenMRz/mboxarchive/internal/i18n"
	"github.com/emurenMRz/mboxarchive/internal/mboxheader"
	"github.com/emurenMRz/mboxarchive/internal/mimetree"
	"github.com/emurenMRz/mboxarchive/internal/transfer"
)

// partState is the leaf part whose body is being read.
type partState struct {
	node        mimetree.PartID
	contentType string
	charset     string
	enc         transfer.Encoding
	content     mimetree.Content
	flowed      bool
	delsp       bool
	name        string
	description string
	inline      bool
	discard     bool // body lines are dropped

	data bytes.Buffer
	qp   []byte
	b64  transfer.Base64Decoder
}

func (s *session) classifyLeaf(ps *partState, disposition string) mimetree.Content {
	attachment := strings.EqualFold(disposition, "attachment") && s.policy.HonorsDisposition(ps.contentType)
	if s.policy.IsIgnored(ps.contentType, false) {
		return mimetree.ContentIgnore
	}
	content := mimetree.ContentBinary
	switch {
	case attachment:
	case s.policy.IsText(ps.contentType):
		content = mimetree.ContentText
	case ps.contentType == "text/html" && s.policy.InlineHTML:
		content = mimetree.ContentHTML
	}
	if content == mimetree.ContentBinary && s.policy.IsIgnored(ps.contentType, true) {
		return mimetree.ContentIgnore
	}
	return content
}

// beginPart dispatches on the header of a part: multipart containers and
// embedded messages open tree nodes, anything else starts a leaf body.
func (s *session) beginPart(fields []mboxheader.HeaderField, parent mimetree.PartID, top bool) {
	frame := s.stack.top()
	def := "text/plain"
	if !top && frame != nil && frame.Subtype == "digest" && parent == frame.Node {
		def = "message/rfc822"
	}
	ctValue, _ := firstValue(fields, "Content-Type")
	contentType, params := mboxheader.ContentType(ctValue, def)
	cte, _ := firstValue(fields, "Content-Transfer-Encoding")
	enc, known := transfer.ParseEncoding(cte)

	ps := &partState{
		node:        mimetree.NoPart,
		contentType: contentType,
		charset:     i18n.Normalize(params["charset"]),
		enc:         enc,
		flowed:      s.policy.FormatFlowed && strings.EqualFold(params["format"], "flowed"),
		delsp:       strings.EqualFold(params["delsp"], "yes"),
	}
	disposition := ""
	dparams := map[string]string{}
	if v, ok := firstValue(fields, "Content-Disposition"); ok {
		disposition, dparams = mboxheader.MediaType(v)
	}
	ps.name = dparams["filename"]
	if ps.name == "" {
		ps.name = params["name"]
	}
	if ps.name != "" {
		ps.name = s.decodeValue(ps.name, ps.charset)
	}
	if v, ok := firstValue(fields, "Content-Description"); ok {
		ps.description = s.decodeValue(v, ps.charset)
	}

	ignored := false
	if limit := s.policy.MaxAttachPerMsg; limit > 0 && s.parts > limit {
		ignored = true
		if !s.tooMany {
			s.tooMany = true
			s.warn(TooManyParts, nil, "more than %d parts, ignoring the rest", limit)
		}
	}

	alternative := !top && s.alt.Active && frame != nil && parent == frame.Node
	decision, previous := altRetain, mimetree.NoPart
	if alternative && !ignored {
		decision, previous = s.alt.decide(s.policy, contentType, enc)
	}
	skipped := ignored || (alternative && decision == altDiscard)

	switch {
	case strings.HasPrefix(contentType, "multipart/"):
		boundary := cleanBoundary(params["boundary"])
		if boundary != "" {
			ignore := skipped || s.policy.IsIgnored(contentType, false)
			s.openMultipart(ps, parent, boundary, ignore, alternative, decision, previous)
			return
		}
		s.warn(MissingOrBrokenBoundary, nil, "%s without boundary read as text", contentType)
		ps.contentType = "text/plain"
		ps.enc = transfer.Identity
	case contentType == "message/rfc822":
		if !transfer.IsPlain(cte) {
			s.warn(UnsupportedEncoding, nil, "message/rfc822 with %q encoding read as-is", strings.TrimSpace(cte))
		}
		s.openEmbedded(parent, skipped, alternative, decision, previous)
		return
	}

	ps.content = s.classifyLeaf(ps, disposition)
	if skipped {
		ps.content = mimetree.ContentIgnore
	}
	if alternative && decision == altStore && ps.content != mimetree.ContentIgnore {
		ps.content = mimetree.ContentBinary
		if ps.description == "" {
			ps.description = s.policy.AltsText
		}
	}
	ps.inline = ps.content == mimetree.ContentBinary &&
		!strings.EqualFold(disposition, "attachment") && s.policy.IsInline(ps.contentType)

	if s.tree == nil && !top {
		s.tree = mimetree.New()
	}
	if s.tree != nil {
		ps.node = s.addNode(parent, ps.contentType, ps.charset, enc, mimetree.Keep, alternative)
		s.cursor = ps.node
	}
	if alternative {
		s.applyDecision(ps.node, decision, previous)
		if skipped {
			s.tree.Part(ps.node).Skip = mimetree.SkipAll
		}
	} else if ignored && ps.node != mimetree.NoPart {
		s.tree.Part(ps.node).Skip = mimetree.SkipAll
	}

	if !known && ps.content != mimetree.ContentIgnore {
		code := strings.Fields(cte)[0]
		s.warn(UnsupportedEncoding, nil, "%q transfer encoding", code)
		s.emit(ps, mimetree.Segment{
			Kind: mimetree.SegmentNotice,
			Text: fmt.Sprintf("('%s' encoding is not supported, stored as-is)\n", code),
		})
		if ps.content == mimetree.ContentBinary {
			// the notice takes the place of the attachment
			ps.content = mimetree.ContentText
			ps.discard = true
		}
	}

	s.cur = ps
	s.mode = modeBody
	if ps.enc == transfer.Uuencode && !ps.discard && ps.content != mimetree.ContentIgnore {
		s.uudecode(ps)
	}
}

func (s *session) addNode(parent mimetree.PartID, contentType, charset string, enc transfer.Encoding, skip mimetree.Skip, alternative bool) mimetree.PartID {
	boundary := ""
	if f := s.stack.top(); f != nil {
		boundary = f.Boundary
	}
	return s.tree.Add(parent, mimetree.Part{
		ContentType: contentType,
		Charset:     charset,
		Encoding:    enc.String(),
		Boundary:    boundary,
		Skip:        skip,
		Alternative: alternative,
	})
}

// applyDecision carries out what the alternative selector decided for the
// branch at node.
func (s *session) applyDecision(node mimetree.PartID, d altDecision, previous mimetree.PartID) {
	inlineSeparator := s.alt.Mode == config.AltInline && previous != mimetree.NoPart
	switch d {
	case altRetain:
		if previous != mimetree.NoPart {
			switch s.alt.Mode {
			case config.AltInline:
			case config.AltStore:
				s.demoteBranch(previous)
			default:
				s.dropBranch(previous)
			}
		}
		s.alt.Node = node
	case altInline:
	default:
		inlineSeparator = false
	}
	if inlineSeparator && s.policy.AltsText != "" {
		s.tree.Append(node, mimetree.Segment{Kind: mimetree.SegmentNotice, Text: s.policy.AltsText + "\n"})
	}
}

// dropBranch removes a branch that lost to a better alternative together
// with the attachments already stored for it.
func (s *session) dropBranch(id mimetree.PartID) {
	s.tree.Part(id).Skip = mimetree.SkipAll
	for _, ref := range s.tree.Attachments(id) {
		s.cancel(ref)
	}
	grip.Debug(message.Fields{
		"message": "dropped alternative",
		"msg":     s.p.num,
		"type":    s.tree.Part(id).ContentType,
	})
}

// demoteBranch stores the text of a branch that lost to a better
// alternative as attachments.
func (s *session) demoteBranch(id mimetree.PartID) {
	s.tree.Walk(id, func(_ mimetree.PartID, p *mimetree.Part) {
		if p.Skip != mimetree.Keep || len(p.Children) > 0 || len(p.Segments) == 0 {
			return
		}
		var data []byte
		for _, seg := range p.Segments {
			if seg.Kind == mimetree.SegmentText || seg.Kind == mimetree.SegmentHTML {
				data = append(data, seg.Text...)
			}
		}
		if len(data) == 0 {
			return
		}
		ref := s.store(data, "", p.ContentType, i18n.UTF8)
		if ref == nil {
			return
		}
		ref.Comment = s.policy.AltsText
		p.Attachment = ref
		p.Skip = mimetree.SkipStoredAttachment
		p.Segments = nil
	})
}

func (s *session) openMultipart(ps *partState, parent mimetree.PartID, boundary string, skipped, alternative bool, d altDecision, previous mimetree.PartID) {
	if s.tree == nil {
		s.tree = mimetree.New()
	}
	skip := mimetree.SkipButKeepChildren
	if skipped {
		skip = mimetree.SkipAll
	}
	node := s.addNode(parent, ps.contentType, "", transfer.Identity, skip, alternative)
	if alternative {
		s.applyDecision(node, d, previous)
	}
	s.cursor = node

	preamble, found := s.prescan(boundary)
	if !found {
		s.warn(MissingOrBrokenBoundary, nil, "start boundary %q not found, read as text", boundary)
		p := s.tree.Part(node)
		p.ContentType = "text/plain"
		ps.node = node
		ps.contentType = "text/plain"
		ps.enc = transfer.Identity
		ps.content = mimetree.ContentText
		if skipped {
			ps.content = mimetree.ContentIgnore
		} else {
			p.Skip = mimetree.Keep
			ps.data.Write(preamble)
		}
		s.cur = ps
		s.mode = modeBody
		return
	}

	s.pushFrame(boundary, strings.TrimPrefix(ps.contentType, "multipart/"), node)
	s.parts++
	s.parent = node
	s.hkind = headerPart
	s.mode = modeHeader
}

func (s *session) openEmbedded(parent mimetree.PartID, skipped, alternative bool, d altDecision, previous mimetree.PartID) {
	if s.tree == nil {
		s.tree = mimetree.New()
	}
	skip := mimetree.Keep
	if skipped {
		skip = mimetree.SkipAll
	}
	node := s.addNode(parent, "message/rfc822", "", transfer.Identity, skip, alternative)
	if alternative {
		s.applyDecision(node, d, previous)
	}
	s.cursor = node
	s.parent = node
	s.hkind = headerEmbedded
	s.mode = modeHeader
}

// prescan reads up to the first boundary of a multipart body. The lines
// before it are returned; found is false when a message separator or an
// enclosing boundary came first, or the input ended.
func (s *session) prescan(boundary string) (preamble []byte, found bool) {
	if s.finishing {
		return nil, false
	}
	for {
		line, ok := s.lr.Next()
		if !ok {
			return preamble, false
		}
		if isStartBoundary(boundary, line) {
			return nil, true
		}
		if s.isSeparator(line) {
			s.lr.Unread(line)
			return preamble, false
		}
		if _, _, ok := s.stack.match(line); ok {
			s.lr.Unread(line)
			return preamble, false
		}
		preamble = append(preamble, line...)
	}
}

// uudecode reads a uuencoded body directly from the input.
func (s *session) uudecode(ps *partState) {
	if s.finishing {
		return
	}
	f := transfer.Uudecode(func() (string, bool) {
		line, ok := s.lr.Next()
		if !ok {
			return "", false
		}
		if _, _, isBoundary := s.stack.match(line); isBoundary || s.isSeparator(line) {
			s.lr.Unread(line)
			return "", false
		}
		return line, true
	})
	ps.data.Write(f.Data)
	if ps.name == "" {
		ps.name = f.Name
	}
	ps.content = mimetree.ContentBinary
	ps.discard = true
}

// partLine decodes one body line of the current leaf.
func (s *session) partLine(line string) {
	ps := s.cur
	if ps.discard || ps.content == mimetree.ContentIgnore {
		return
	}
	switch ps.enc {
	case transfer.QuotedPrintable:
		out, soft := transfer.DecodeQPLine(line)
		ps.qp = append(ps.qp, out...)
		if soft {
			return
		}
		ps.data.Write(ps.qp)
		ps.qp = ps.qp[:0]
	case transfer.Base64:
		ps.data.Write(ps.b64.Decode(line))
	case transfer.Uuencode:
		ps.data.Write(transfer.DecodeUULine(line))
	default:
		ps.data.WriteString(line)
	}
}

func (s *session) emit(ps *partState, seg mimetree.Segment) {
	if ps.node != mimetree.NoPart {
		s.tree.Append(ps.node, seg)
		return
	}
	s.body = append(s.body, seg)
}

// underSkipped reports whether id or one of its ancestors is dropped.
func (s *session) underSkipped(id mimetree.PartID) bool {
	if s.tree == nil {
		return false
	}
	for ; id != mimetree.NoPart; id = s.tree.Parent(id) {
		if s.tree.Part(id).Skip == mimetree.SkipAll {
			return true
		}
	}
	return false
}

// closePart finishes the current leaf: text is converted and reflowed,
// binary content is stored, and the node is classified.
func (s *session) closePart() {
	ps := s.cur
	if ps == nil {
		return
	}
	s.cur = nil
	if len(ps.qp) > 0 {
		ps.data.Write(ps.qp)
		ps.qp = nil
	}

	fileCreated := false
	switch ps.content {
	case mimetree.ContentText, mimetree.ContentHTML:
		if ps.data.Len() == 0 {
			break
		}
		text, ok := i18n.ResolveBody(ps.data.Bytes(), ps.charset, s.fallbackCharset())
		if !ok {
			s.warn(CharsetConversionFailure, nil, "%s body is not valid in any charset", ps.contentType)
		}
		if ps.flowed && ps.content == mimetree.ContentText {
			text = reflow(text, ps.delsp, s.policy.FormatFlowedDisableQuoted)
		}
		if ps.node == mimetree.NoPart {
			text = dropTrailingBlankLines(text)
		}
		if text == "" {
			break
		}
		kind := mimetree.SegmentText
		if ps.content == mimetree.ContentHTML {
			kind = mimetree.SegmentHTML
		}
		s.emit(ps, mimetree.Segment{Kind: kind, Text: text})
	case mimetree.ContentBinary:
		if s.deleted || s.underSkipped(ps.node) {
			break
		}
		ref := s.store(ps.data.Bytes(), ps.name, ps.contentType, ps.charset)
		if ref == nil {
			break
		}
		fileCreated = true
		ref.Comment = ps.description
		ref.Inline = ps.inline
		if ps.node == mimetree.NoPart {
			s.trailing = append(s.trailing, ref)
		} else {
			s.tree.Part(ps.node).Attachment = ref
		}
	}

	if ps.node != mimetree.NoPart {
		p := s.tree.Part(ps.node)
		if p.Skip != mimetree.SkipAll {
			p.Skip = mimetree.Classify(fileCreated, ps.content, ps.contentType)
		}
	}
}
