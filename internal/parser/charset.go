package parser

import (
	"strings"

	"github.com/emurenMRz/mboxarchive/internal/i18n"
	"github.com/emurenMRz/mboxarchive/internal/mimetree"
)

func charsetRank(contentType string) int {
	switch {
	case contentType == "text/plain":
		return 0
	case strings.HasPrefix(contentType, "text/"):
		return 1
	}
	return 2
}

// treeCharset returns the charset of the retained parts: text/plain wins
// over other text, which wins over the rest; earlier parts win ties.
func (s *session) treeCharset() string {
	best, rank := "", 3
	skipped := map[mimetree.PartID]bool{}
	s.tree.Walk(s.tree.Root(), func(id mimetree.PartID, p *mimetree.Part) {
		if p.Skip == mimetree.SkipAll || (p.Parent != mimetree.NoPart && skipped[p.Parent]) {
			skipped[id] = true
			return
		}
		if p.Charset == "" {
			return
		}
		if r := charsetRank(p.ContentType); r < rank {
			best, rank = p.Charset, r
		}
	})
	return best
}

// messageCharset picks the charset reported for the whole message.
func (s *session) messageCharset() string {
	cs := ""
	if s.tree != nil {
		cs = s.treeCharset()
	}
	if cs == "" {
		cs = s.declared
	}
	if s.hint != "" && (cs == "" || (i18n.IsASCIIName(cs) && !i18n.IsASCIIName(s.hint))) {
		cs = s.hint
	}
	if cs == "" {
		cs = i18n.Normalize(s.policy.DefaultCharset)
	}
	return i18n.UpgradeASCII(cs, s.policy.ReplaceUSASCIIWithUTF8)
}

// fallbackCharset is used for text parts that declare no charset.
func (s *session) fallbackCharset() string {
	switch {
	case s.declared != "":
		return s.declared
	case s.hint != "":
		return s.hint
	}
	return i18n.Normalize(s.policy.DefaultCharset)
}
