// Package config holds the archiving policy consulted while parsing.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AltMode says what happens to the branches of a multipart/alternative
// that are not the preferred one.
type AltMode string

const (
	AltNone   AltMode = "none"   // discard them
	AltInline AltMode = "inline" // keep them all inline
	AltStore  AltMode = "store"  // store them as attachments
)

// UnmarshalYAML accepts the mode names and the numbers 0, 1 and 2.
func (m *AltMode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "0", "false":
		*m = AltNone
	case "inline", "1":
		*m = AltInline
	case "store", "2":
		*m = AltStore
	default:
		return errors.Errorf("unknown save_alts mode %q", s)
	}
	return nil
}

const (
	// IgnoreNonPlain in IgnoreTypes ignores everything but text/plain.
	IgnoreNonPlain = "$NONPLAIN"
	// IgnoreBinary in IgnoreTypes ignores every binary part.
	IgnoreBinary = "$BINARY"
)

const dateLayout = "2006-01-02"

// Policy is read-only during a parse.
type Policy struct {
	IgnoreTypes              []string `yaml:"ignore_types"`
	InlineTypes              []string `yaml:"inline_types"`
	TextTypes                []string `yaml:"text_types"`
	PreferredTypes           []string `yaml:"preferred_types"`
	IgnoreContentDisposition []string `yaml:"ignore_content_disposition"`

	MaxAttachPerMsg int     `yaml:"max_attach_per_msg"`
	SaveAlts        AltMode `yaml:"save_alts"`
	AltsText        string  `yaml:"alts_text"`

	InlineHTML                bool `yaml:"inline_html"`
	FormatFlowed              bool `yaml:"format_flowed"`
	FormatFlowedDisableQuoted bool `yaml:"format_flowed_disable_quoted"`

	AppleMailHack     bool     `yaml:"applemail_mimehack"`
	AppleMailUAHeader string   `yaml:"applemail_ua_header"`
	AppleMailUAValues []string `yaml:"applemail_ua_values"`

	DefaultCharset         string `yaml:"default_charset"`
	ReplaceUSASCIIWithUTF8 bool   `yaml:"replace_us_ascii_with_utf8"`
	StripSubject           string `yaml:"strip_subject"`

	Deleted     []string `yaml:"deleted"`
	Expires     []string `yaml:"expires"`
	Annotated   []string `yaml:"annotated"`
	DeleteOlder string   `yaml:"delete_older"`
	DeleteNewer string   `yaml:"delete_newer"`

	ReadOne       bool `yaml:"read_one"`
	StartNum      int  `yaml:"start_num"`
	MaxLineLength int  `yaml:"max_line_length"`
	UseMeta       bool `yaml:"use_meta"`
}

// Default returns the policy used when no configuration file is given.
func Default() *Policy {
	return &Policy{
		InlineTypes:       []string{"image/gif", "image/jpeg", "image/png"},
		MaxAttachPerMsg:   0,
		SaveAlts:          AltNone,
		AltsText:          "alternate version of message",
		FormatFlowed:      true,
		AppleMailHack:     true,
		AppleMailUAHeader: "X-Mailer",
		AppleMailUAValues: []string{"Apple", "iPhone"},
		DefaultCharset:    "iso-8859-1",
		Deleted:           []string{"X-Hypermail-Deleted", "X-No-Archive"},
		Expires:           []string{"Expires"},
		Annotated:         []string{"X-Hypermail-Annotated"},
		MaxLineLength:     4096,
	}
}

// Load reads a YAML policy from path over the defaults.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	return Parse(data)
}

// LoadOrDefault is Load, or Default when path is empty.
func LoadOrDefault(path string) (*Policy, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Parse reads a YAML policy over the defaults.
func Parse(data []byte) (*Policy, error) {
	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks values that would otherwise fail late.
func (p *Policy) Validate() error {
	if p.MaxAttachPerMsg < 0 {
		return errors.Errorf("max_attach_per_msg must not be negative, got %d", p.MaxAttachPerMsg)
	}
	if p.MaxLineLength < 0 {
		return errors.Errorf("max_line_length must not be negative, got %d", p.MaxLineLength)
	}
	switch p.SaveAlts {
	case AltNone, AltInline, AltStore:
	case "":
		p.SaveAlts = AltNone
	default:
		return errors.Errorf("unknown save_alts mode %q", p.SaveAlts)
	}
	if _, err := p.OlderLimit(); err != nil {
		return err
	}
	if _, err := p.NewerLimit(); err != nil {
		return err
	}
	return nil
}

func parseLimit(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "%s must look like %s", name, dateLayout)
	}
	return t, nil
}

// OlderLimit returns the DeleteOlder date, zero when unset.
func (p *Policy) OlderLimit() (time.Time, error) {
	return parseLimit("delete_older", p.DeleteOlder)
}

// NewerLimit returns the DeleteNewer date, zero when unset.
func (p *Policy) NewerLimit() (time.Time, error) {
	return parseLimit("delete_newer", p.DeleteNewer)
}

func inList(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// position returns the index of s in list, or -1.
func position(list []string, s string) int {
	for i, v := range list {
		if strings.EqualFold(v, s) {
			return i
		}
	}
	return -1
}

// IsIgnored reports whether content of contentType is never archived.
// binary reports whether the part would otherwise be stored.
func (p *Policy) IsIgnored(contentType string, binary bool) bool {
	if inList(p.IgnoreTypes, contentType) {
		return true
	}
	if inList(p.IgnoreTypes, IgnoreNonPlain) && !strings.EqualFold(contentType, "text/plain") &&
		!strings.HasPrefix(strings.ToLower(contentType), "multipart/") {
		return true
	}
	return binary && inList(p.IgnoreTypes, IgnoreBinary)
}

// IsText reports whether contentType is shown as plain text.
func (p *Policy) IsText(contentType string) bool {
	if strings.EqualFold(contentType, "text/plain") || strings.EqualFold(contentType, "text") {
		return true
	}
	return inList(p.TextTypes, contentType)
}

// IsInline reports whether contentType attachments are shown inline.
func (p *Policy) IsInline(contentType string) bool {
	return inList(p.InlineTypes, contentType)
}

// HonorsDisposition reports whether Content-Disposition is obeyed for
// contentType.
func (p *Policy) HonorsDisposition(contentType string) bool {
	return !inList(p.IgnoreContentDisposition, contentType)
}

// PreferredPosition returns the index of contentType in PreferredTypes,
// or -1.
func (p *Policy) PreferredPosition(contentType string) int {
	return position(p.PreferredTypes, contentType)
}

// IsDeletedHeader reports whether name triggers deletion.
func (p *Policy) IsDeletedHeader(name string) bool {
	return inList(p.Deleted, name)
}

// IsExpiresHeader reports whether name carries an expiry date.
func (p *Policy) IsExpiresHeader(name string) bool {
	return inList(p.Expires, name)
}

// IsAnnotatedHeader reports whether name carries annotations.
func (p *Policy) IsAnnotatedHeader(name string) bool {
	return inList(p.Annotated, name)
}

// IsAppleMailUA reports whether the user agent value names one of the
// configured Apple Mail clients, as in "Apple Mail (2.1084)".
func (p *Policy) IsAppleMailUA(value string) bool {
	i := strings.Index(value, " Mail (")
	if i == -1 {
		return false
	}
	return inList(p.AppleMailUAValues, strings.TrimSpace(value[:i]))
}
