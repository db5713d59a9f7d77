package mboxheader

import (
	"strings"
)

type KeyFieldSet struct {
	index int    // field-index
	name  string // original field-name
}

// Block accumulates the physical lines of one header block.
type Block struct {
	fields []HeaderField
}

// IsContinuation reports whether line folds into the previous header.
func IsContinuation(line string) bool {
	if line == "" || (line[0] != ' ' && line[0] != '\t') {
		return false
	}
	return strings.TrimSpace(line) != ""
}

// AddLine appends a physical header line. Continuation lines lose their
// leading whitespace and are joined to the previous field with one space.
func (b *Block) AddLine(line string) {
	if IsContinuation(line) {
		if n := len(b.fields); n > 0 {
			f := &b.fields[n-1]
			f.Raw += " " + strings.TrimLeft(line, " \t")
			f.Continued = true
			return
		}
	}
	b.fields = append(b.fields, HeaderField{Raw: line, Name: fieldName(line)})
}

// Len returns the number of logical fields collected so far.
func (b *Block) Len() int {
	return len(b.fields)
}

// Fields returns the collected fields, with their values split out of Raw.
func (b *Block) Fields() []HeaderField {
	for i := range b.fields {
		f := &b.fields[i]
		if !f.Decoded {
			f.Value = RawValue(f.Raw)
		}
	}
	return b.fields
}

func fieldName(line string) string {
	if i := strings.Index(line, ":"); i != -1 {
		return strings.TrimSpace(line[:i])
	}
	return ""
}

// RawValue returns the undecoded value of a header line.
func RawValue(line string) string {
	i := strings.Index(line, ":")
	if i == -1 {
		return ""
	}
	return strings.TrimSpace(line[i+1:])
}

// HasName reports whether field f is named name, ignoring case.
func (f HeaderField) HasName(name string) bool {
	return strings.EqualFold(f.Name, name)
}

type ParsedMailHeaders struct {
	keys   map[string]KeyFieldSet // lowercased field-name set: keys[lowercased field-name] = KeyFieldSet
	fields []HeaderField          // Preserve header field order
}

// NewParsedMailHeaders indexes fields by lowercased name; the first
// occurrence of a name wins.
func NewParsedMailHeaders(fields []HeaderField) ParsedMailHeaders {
	keys := map[string]KeyFieldSet{}

	for i, field := range fields {
		if field.Invalid || field.Name == "" {
			continue
		}
		key := strings.ToLower(field.Name)
		if _, exists := keys[key]; !exists {
			keys[key] = KeyFieldSet{
				index: i,
				name:  field.Name,
			}
		}
	}

	return ParsedMailHeaders{
		keys:   keys,
		fields: fields,
	}
}

// ParseBlock splits a header text into fields, one per logical line.
func ParseBlock(headers string) []HeaderField {
	var b Block
	for _, line := range strings.Split(headers, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		b.AddLine(line)
	}
	fields := b.Fields()
	Validate(fields)
	return fields
}

// Validate checks the syntax of each field and sets its flags.
func Validate(fields []HeaderField) {
	for i := range fields {
		fields[i].Validated = true
		fields[i].Invalid = !ValidateLine(fields[i].Raw)
	}
}

func (h ParsedMailHeaders) GetFieldValue(key string) (string, bool) {
	keySet, exists := h.keys[key]
	if !exists {
		return "", false
	}
	index := keySet.index
	if index < 0 || index >= len(h.fields) {
		return "", false
	}
	return strings.TrimSpace(h.fields[index].Value), true
}

func (h ParsedMailHeaders) Has(key string) bool {
	_, exists := h.keys[key]
	return exists
}
