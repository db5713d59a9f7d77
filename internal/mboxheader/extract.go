package mboxheader

import (
	"net/mail"
	"strings"
	"time"
)

const (
	NoSubject = "(no subject)"
	NoDate    = "(no date)"
	NoName    = "(no name)"
	NoEmail   = "(no email)"

	// BozoID stands in for a Message-Id header with nothing usable in it.
	BozoID = "BOZO"
)

var weekdays = []string{"Mon ", "Tue ", "Wed ", "Thu ", "Fri ", "Sat ", "Sun "}

// ParseDate tries to parse common email Date header formats and returns a time.Time.
// If parsing fails, it returns zero time.
func ParseDate(dateStr string) time.Time {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}
	}
	if t, err := mail.ParseDate(dateStr); err == nil {
		return t
	}
	// common fallbacks
	layouts := []string{
		time.RFC1123Z,
		time.RFC1123,
		time.RFC822Z,
		time.RFC822,
		time.RFC850,
		time.RFC3339,
		time.ANSIC,
		time.UnixDate,
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, dateStr); err == nil {
			return t
		}
	}
	return time.Time{}
}

// MailDate returns the Date header value, or NoDate when it is empty.
func MailDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return NoDate
	}
	return value
}

// EnvelopeDate returns the date of a mbox "From " separator line, starting
// at the weekday name. ok is false when the line carries no date.
func EnvelopeDate(line string) (string, bool) {
	line = strings.TrimRight(line, "\r\n")
	for _, day := range weekdays {
		if i := strings.Index(line, day); i != -1 {
			return line[i:], true
		}
	}
	return "", false
}

// IsSeparator reports whether line is a mbox message separator.
func IsSeparator(line string) bool {
	if !strings.HasPrefix(line, "From ") {
		return false
	}
	_, ok := EnvelopeDate(line)
	return ok
}

// IsReply reports whether s starts with a reply marker ("Re:", "Fw:" or
// "Re[n]:") and returns the text after it.
func IsReply(s string) (string, bool) {
	if len(s) < 3 {
		return s, false
	}
	switch prefix := strings.ToLower(s[:3]); prefix {
	case "re:", "fw:":
		return s[3:], true
	case "re[":
		rest := s[3:]
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if strings.HasPrefix(rest[i:], "]:") {
			return rest[i+2:], true
		}
	}
	return s, false
}

// Subject normalizes a decoded Subject value. strip is removed from the
// value wherever it occurs, leading reply markers are dropped as long as text
// remains after them. reply reports whether a marker was found.
func Subject(value, strip string) (subject string, reply bool) {
	if strip != "" {
		value = strings.ReplaceAll(value, strip, "")
	}
	s := strings.TrimSpace(value)
	for {
		rest, ok := IsReply(s)
		if !ok {
			break
		}
		reply = true
		s = strings.TrimSpace(rest)
	}
	if s == "" {
		return NoSubject, reply
	}
	return s, reply
}

// MessageID extracts the id from a Message-Id value. Without angle brackets
// the whole value is taken; backslashes are dropped.
func MessageID(value string) string {
	c := strings.TrimLeft(value, " \t")
	if i := strings.LastIndex(value, "<"); i != -1 {
		c = value[i+1:]
	}
	var b strings.Builder
	for _, r := range c {
		if r == '>' || r == '\n' || r == '\r' {
			break
		}
		if r == '\\' {
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return BozoID
	}
	return b.String()
}

// UnescapeReply turns a URL-escaped " %3Cid%3E" into " <id>".
func UnescapeReply(value string) string {
	i := strings.Index(value, " %3C")
	if i == -1 {
		return value
	}
	j := strings.Index(value[i:], "%3E")
	if j == -1 {
		return value
	}
	j += i
	return value[:i] + " <" + value[i+4:j] + ">" + value[j+3:]
}

func until(s string, stop func(rune) bool) string {
	if i := strings.IndexFunc(s, stop); i != -1 {
		return s[:i]
	}
	return s
}

func bracketed(s string, skipEscapes bool) string {
	i := strings.Index(s, "<")
	if i == -1 {
		return ""
	}
	id := until(s[i+1:], func(r rune) bool { return r == '>' || r == '\n' || r == '\r' })
	if skipEscapes {
		id = strings.ReplaceAll(id, "\\", "")
	}
	return id
}

func upToPeriod(s string) string {
	return until(s, func(r rune) bool { return r == '.' || r == '\n' || r == '\r' })
}

// Reply extracts the referenced message id from an In-Reply-To value.
// Legacy formats that carry only a date yield that date text instead.
func Reply(value string) string {
	value = UnescapeReply(value)

	// <msgid> from "quoted user name" at date-string
	if strings.Contains(value, " from ") && strings.Contains(value, " at ") {
		if strings.Contains(value, "<") {
			return bracketed(value, false)
		}
	}

	// "quoted user name"'s message of date-string <msgid>
	if i := strings.Index(value, "message of "); i != -1 {
		if strings.Contains(value, "<") {
			return bracketed(value, false)
		}
		c := strings.TrimLeft(value[i+len("message of "):], " \t")
		c = strings.TrimPrefix(c, `"`)
		return upToPeriod(c)
	}

	if i := strings.Index(value, "dated: "); i != -1 {
		return upToPeriod(value[i+len("dated: "):])
	}
	if i := strings.Index(value, "dated "); i != -1 {
		return upToPeriod(value[i+len("dated "):])
	}

	if strings.Contains(value, "<") {
		return bracketed(value, true)
	}

	if i := strings.Index(value, "sage of "); i != -1 {
		c := strings.TrimPrefix(value[i+len("sage of "):], `"`)
		return until(c, func(r rune) bool { return r == '.' || r == '\n' || r == '\r' || r == 'f' })
	}
	return ""
}

// FirstReference returns the first bracketed id of a References value.
func FirstReference(value string) string {
	return bracketed(UnescapeReply(value), true)
}

// ParseAnnotation reads the comma or space separated tokens of an
// annotation header. ok is false when no known token was present.
func ParseAnnotation(value string) (a Annotation, ok bool) {
	tokens := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\r' || r == '\n'
	})
loop:
	for _, tok := range tokens {
		switch strings.ToLower(tok) {
		case "deleted":
			a.Content = AnnotationDeletedOther
			break loop
		case "spam":
			a.Content = AnnotationDeletedSpam
			break loop
		case "edited":
			a.Content = AnnotationEdited
		case "noindex":
			a.Robot |= RobotNoIndex
		case "nofollow":
			a.Robot |= RobotNoFollow
		}
	}
	return a, a.Content != AnnotationNone || a.Robot != 0
}

// IsYes reports whether a deletion header value asks for deletion.
func IsYes(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "yes")
}

// Address splits a From value into a display name and an email address.
// The name falls back to the address and both fall back to placeholders.
func Address(value string) (name, email string) {
	value = strings.TrimSpace(value)
	if addrs, err := mail.ParseAddressList(value); err == nil && len(addrs) > 0 {
		name, email = addrs[0].Name, addrs[0].Address
	} else {
		name, email = looseAddress(value)
	}
	if email == "" {
		email = NoEmail
	}
	if name == "" {
		if email != NoEmail {
			name = email
		} else {
			name = NoName
		}
	}
	return name, email
}

// looseAddress handles "Name <addr>" and "addr (Name)" forms that net/mail
// rejects, such as unquoted specials or 8-bit names.
func looseAddress(value string) (name, email string) {
	if i := strings.LastIndex(value, "<"); i != -1 {
		if j := strings.Index(value[i:], ">"); j != -1 {
			email = strings.TrimSpace(value[i+1 : i+j])
			name = strings.Trim(strings.TrimSpace(value[:i]), `"`)
			return name, email
		}
	}
	if i := strings.Index(value, "("); i != -1 {
		if j := strings.LastIndex(value, ")"); j > i {
			return strings.TrimSpace(value[i+1 : j]), strings.TrimSpace(value[:i])
		}
	}
	if strings.Contains(value, "@") {
		return "", strings.Fields(value)[0]
	}
	return strings.Trim(value, `"`), ""
}
