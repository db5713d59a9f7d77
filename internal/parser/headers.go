package parser

import (
	"strings"

	"github.com/emurenMRz/mboxarchive/internal/config"
	"github.com/emurenMRz/mboxarchive/internal/i18n"
	"github.com/emurenMRz/mboxarchive/internal/mboxheader"
	"github.com/emurenMRz/mboxarchive/internal/mimetree"
)

// firstValue returns the raw value of the first valid field named name.
func firstValue(fields []mboxheader.HeaderField, name string) (string, bool) {
	for _, f := range fields {
		if !f.Invalid && f.HasName(name) {
			return mboxheader.RawValue(f.Raw), true
		}
	}
	return "", false
}

// decodeFields decodes the value of every valid field: encoded words first,
// then whatever charset makes the result valid UTF-8.
func (s *session) decodeFields(fields []mboxheader.HeaderField, declared string) {
	for i := range fields {
		f := &fields[i]
		if f.Invalid {
			s.warn(InvalidHeaderLine, nil, "ignoring header line %q", f.Raw)
			continue
		}
		f.Value = s.decodeValue(mboxheader.RawValue(f.Raw), declared)
		f.Decoded = true
	}
}

func (s *session) decodeValue(raw, declared string) string {
	decoded, cs, changed := s.p.words.Decode(raw)
	if changed && cs != "" {
		s.hint = cs
	}
	out, used, ok := i18n.ResolveHeader([]byte(decoded), declared, s.hint)
	if !ok {
		s.warn(CharsetConversionFailure, nil, "no charset fits header value %q", raw)
	} else if s.hint == "" && used != "" && !i18n.IsUTF8Name(used) {
		s.hint = used
	}
	return out
}

// topHeader fills the record from the message header. Single-valued
// fields keep their first occurrence.
func (s *session) topHeader(fields []mboxheader.HeaderField) {
	if ct, ok := firstValue(fields, "Content-Type"); ok {
		_, params := mboxheader.MediaType(ct)
		s.declared = i18n.Normalize(params["charset"])
	}
	s.decodeFields(fields, s.declared)

	rec := s.rec
	rec.Header = fields
	seen := map[string]bool{}
	reference := ""
	for _, f := range fields {
		if f.Invalid {
			continue
		}
		key := strings.ToLower(f.Name)
		switch {
		case s.policy.IsDeletedHeader(f.Name):
			if mboxheader.IsYes(f.Value) {
				rec.Deleted = true
			}
			continue
		case s.policy.IsExpiresHeader(f.Name):
			if t := mboxheader.ParseDate(f.Value); !t.IsZero() && t.Before(s.p.now()) {
				rec.Expired = true
			}
			continue
		case s.policy.IsAnnotatedHeader(f.Name):
			if a, ok := mboxheader.ParseAnnotation(f.Value); ok {
				rec.Annotation = a
				if a.Content == mboxheader.AnnotationDeletedOther || a.Content == mboxheader.AnnotationDeletedSpam {
					rec.Deleted = true
				}
			}
			continue
		case s.policy.AppleMailHack && strings.EqualFold(f.Name, s.policy.AppleMailUAHeader):
			s.checkAppleMail(f.Value)
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		switch key {
		case "date":
			rec.Date = mboxheader.MailDate(f.Value)
			rec.Time = mboxheader.ParseDate(f.Value)
		case "from":
			rec.Name, rec.Email = mboxheader.Address(f.Value)
		case "to":
			rec.To = f.Value
		case "subject":
			rec.Subject, rec.IsReply = mboxheader.Subject(f.Value, s.policy.StripSubject)
		case "message-id":
			rec.MsgID = mboxheader.MessageID(mboxheader.RawValue(f.Raw))
		case "in-reply-to":
			rec.InReplyTo = mboxheader.Reply(f.Value)
		case "references":
			reference = mboxheader.FirstReference(f.Value)
		}
	}

	if rec.InReplyTo == "" {
		rec.InReplyTo = reference
	}
	if rec.Subject == "" {
		rec.Subject = mboxheader.NoSubject
	}
	if rec.Name == "" {
		rec.Name, rec.Email = mboxheader.Address("")
	}
	if rec.Date == "" {
		rec.Date = mboxheader.NoDate
	}
	if rec.Time.IsZero() && s.fromDate != "" {
		rec.Time = mboxheader.ParseDate(s.fromDate)
	}
	if rec.MsgID == "" {
		rec.MsgID = mboxheader.SyntheticMessageID(rec.Time)
		rec.SyntheticID = true
	}
	s.applyDateLimits()
	s.deleted = rec.Deleted
}

func (s *session) applyDateLimits() {
	if s.rec.Time.IsZero() {
		return
	}
	if older, _ := s.policy.OlderLimit(); !older.IsZero() && s.rec.Time.Before(older) {
		s.rec.Deleted = true
	}
	if newer, _ := s.policy.NewerLimit(); !newer.IsZero() && s.rec.Time.After(newer) {
		s.rec.Deleted = true
	}
}

// checkAppleMail switches to storing alternatives for messages written by
// Apple Mail, unless another save mode is configured.
func (s *session) checkAppleMail(ua string) {
	if s.policy.SaveAlts != "" && s.policy.SaveAlts != config.AltNone {
		return
	}
	if s.policy.IsAppleMailUA(ua) {
		s.alt.AppleHack = true
		s.alt.Mode = config.AltStore
	}
}

var embeddedHeaders = []string{"From", "Date", "Subject", "To", "Cc"}

// embeddedHeader shows the header of a message/rfc822 part inside the
// enclosing message.
func (s *session) embeddedHeader(fields []mboxheader.HeaderField, node mimetree.PartID) {
	declared := ""
	if ct, ok := firstValue(fields, "Content-Type"); ok {
		_, params := mboxheader.MediaType(ct)
		declared = i18n.Normalize(params["charset"])
	}
	s.decodeFields(fields, declared)

	s.embedded[node] = s.alt
	s.alt.AppleHack = false
	s.alt.Mode = s.policy.SaveAlts

	seen := map[string]bool{}
	for _, f := range fields {
		if f.Invalid {
			continue
		}
		if s.policy.AppleMailHack && strings.EqualFold(f.Name, s.policy.AppleMailUAHeader) {
			s.checkAppleMail(f.Value)
		}
		for _, name := range embeddedHeaders {
			if f.HasName(name) && !seen[name] {
				seen[name] = true
				s.tree.Append(node, mimetree.Segment{Kind: mimetree.SegmentHeader, Name: name, Text: f.Value})
			}
		}
	}
}
