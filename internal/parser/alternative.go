package parser

import (
	"strings"

	"github.com/emurenMRz/mboxarchive/internal/config"
	"github.com/emurenMRz/mboxarchive/internal/mimetree"
	"github.com/emurenMRz/mboxarchive/internal/transfer"
)

// AlternativeState tracks the branch selection of the innermost
// multipart/alternative.
type AlternativeState struct {
	Active    bool            // the innermost multipart is an alternative
	Best      int             // weight of the retained branch, -1 for none
	LastType  string          // content type of the retained branch
	Node      mimetree.PartID // retained branch
	Mode      config.AltMode  // save mode in effect
	AppleHack bool            // Apple Mail user agent seen
}

func newAlternativeState(mode config.AltMode) AlternativeState {
	return AlternativeState{Best: -1, Node: mimetree.NoPart, Mode: mode}
}

// nested returns the state for a multipart opened inside s.
func (s AlternativeState) nested(alternative bool) AlternativeState {
	n := newAlternativeState(s.Mode)
	n.Active = alternative
	n.AppleHack = s.AppleHack
	return n
}

type altDecision int

const (
	altRetain  altDecision = iota // new preferred branch
	altDiscard                    // drop the branch
	altInline                     // keep it next to the preferred one
	altStore                      // store it as an attachment
)

// alternativeWeight ranks a content type, lower is better. text/plain is
// always first, the preferred types follow in list order, then other text
// and finally everything else by transfer encoding.
func alternativeWeight(policy *config.Policy, contentType string, enc transfer.Encoding) int {
	if strings.EqualFold(contentType, "text/plain") {
		return 0
	}
	if pos := policy.PreferredPosition(contentType); pos != -1 {
		return pos + 1
	}
	if strings.HasPrefix(strings.ToLower(contentType), "text/") {
		return 1001
	}
	return 2001 + int(enc)
}

// decide picks what to do with a new branch and records it when it becomes
// the preferred one. previous is the branch it replaces.
func (s *AlternativeState) decide(policy *config.Policy, contentType string, enc transfer.Encoding) (d altDecision, previous mimetree.PartID) {
	previous = s.Node
	if s.AppleHack && strings.EqualFold(s.LastType, "text/plain") &&
		strings.EqualFold(contentType, "text/html") {
		return altDiscard, previous
	}
	w := alternativeWeight(policy, contentType, enc)
	if s.Best == -1 || w < s.Best {
		s.Best = w
		s.LastType = contentType
		return altRetain, previous
	}
	switch s.Mode {
	case config.AltInline:
		return altInline, previous
	case config.AltStore:
		return altStore, previous
	}
	return altDiscard, previous
}
