package mboxheader

import (
	"net/mail"
	"regexp"
	"strings"
)

const (
	StatusValid   = "valid"
	StatusMissing = "missing"
	StatusInvalid = "invalid"
	StatusDeleted = "deleted"
)

const maxFieldNameLength = 127

var messageIDRegex = regexp.MustCompile(`^<[^<>@]+@[^<>@]+>$`)

// fieldChecks lists the fields every archived message should carry, in
// report order.
var fieldChecks = []struct {
	key, name, detail string
	valid             func(string) bool
}{
	{"from", "From", "Invalid From address format", isValidFrom},
	{"date", "Date", "Invalid Date format", isValidDate},
	{"message-id", "Message-ID", "Invalid Message-ID format", isValidMessageID},
}

// ValidateLine checks that line is "name:" followed by a space or tab and a
// value that is not only whitespace. The name must be printable US-ASCII.
func ValidateLine(line string) bool {
	i := strings.Index(line, ":")
	if i <= 0 || i > maxFieldNameLength || i+1 >= len(line) {
		return false
	}
	if line[i+1] != ' ' && line[i+1] != '\t' {
		return false
	}
	for _, c := range []byte(line[:i]) {
		if c <= ' ' || c > '~' {
			return false
		}
	}
	return strings.TrimSpace(line[i+1:]) != ""
}

// ValidateHeaders reports malformed lines, then missing or unparsable
// From, Date and Message-ID fields.
func ValidateHeaders(fields []HeaderField, msgIndex int) []ValidationResult {
	var results []ValidationResult
	report := func(field, status, detail string) {
		results = append(results, ValidationResult{MsgIndex: msgIndex, Field: field, Status: status, Detail: detail})
	}

	for _, field := range fields {
		if field.Invalid {
			report(field.Raw, StatusInvalid, "Malformed header line")
		}
	}

	parsed := NewParsedMailHeaders(fields)
	for _, c := range fieldChecks {
		value, ok := parsed.GetFieldValue(c.key)
		switch {
		case !ok:
			report(c.key, StatusMissing, "")
		case !c.valid(value):
			report(c.name, StatusInvalid, c.detail)
		}
	}
	return results
}

func isValidFrom(from string) bool {
	_, err := mail.ParseAddressList(from)
	return err == nil
}

func isValidDate(date string) bool {
	_, err := mail.ParseDate(date)
	return err == nil
}

func isValidMessageID(msgID string) bool {
	msgID = strings.Trim(msgID, "<>")
	return messageIDRegex.MatchString("<" + msgID + ">")
}
