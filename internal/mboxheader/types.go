package mboxheader

// HeaderField is one logical header line of a message or MIME part.
type HeaderField struct {
	Raw   string // physical line, continuation lines folded in with one space
	Name  string // original field-name
	Value string // value after RFC 2047 and charset decoding

	Continued bool // at least one continuation line was folded in
	Decoded   bool // Value holds the decoded form
	Validated bool // syntax was checked
	Invalid   bool // failed the name:value syntax, kept verbatim only
}

// ValidationResult represents the result of validating a message header
type ValidationResult struct {
	MsgIndex int    `json:"msgIndex"`
	Field    string `json:"field"`
	Status   string `json:"status"` // "valid", "missing", "invalid", "deleted"
	Detail   string `json:"detail,omitempty"`
}

// AnnotationContent is the content annotation of a message.
type AnnotationContent int

const (
	AnnotationNone AnnotationContent = iota
	AnnotationDeletedOther
	AnnotationDeletedSpam
	AnnotationEdited
)

// RobotFlags are the robot annotations of a message.
type RobotFlags int

const (
	RobotNoIndex RobotFlags = 1 << iota
	RobotNoFollow
)

// Annotation is the parsed value of an annotation header.
type Annotation struct {
	Content AnnotationContent
	Robot   RobotFlags
}
