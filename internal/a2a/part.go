// Package a2a defines the wire data model shared by every component of the
// agent network: Parts, Messages, Artifacts, Tasks, and AgentCards, plus
// the streaming task-update events exchanged between the agent runtime
// (C3) and the peer-invocation tools (C5).
package a2a

import "encoding/base64"

// PartKind discriminates the two Part variants.
type PartKind string

const (
	PartKindText PartKind = "text"
	PartKindFile PartKind = "file"
)

// Part is a tagged variant: either a TextPart or a FilePart. A FilePart's
// payload is either inline bytes or a FileId reference into the file
// store (C1); exactly one of Bytes/FileID is populated at a time.
type Part struct {
	Kind     PartKind `json:"kind"`
	Text     string   `json:"text,omitempty"`
	MimeType string   `json:"mime_type,omitempty"`
	Bytes    []byte   `json:"bytes,omitempty"`
	FileID   string   `json:"file_id,omitempty"`
}

// NewTextPart builds a TextPart.
func NewTextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// NewInlineFilePart builds a FilePart carrying its payload inline.
func NewInlineFilePart(mimeType string, payload []byte) Part {
	return Part{Kind: PartKindFile, MimeType: mimeType, Bytes: payload}
}

// NewFileRefPart builds a FilePart whose payload is a FileId reference.
func NewFileRefPart(mimeType, fileID string) Part {
	return Part{Kind: PartKindFile, MimeType: mimeType, FileID: fileID}
}

// IsText reports whether p is a TextPart.
func (p Part) IsText() bool { return p.Kind == PartKindText }

// IsFile reports whether p is a FilePart.
func (p Part) IsFile() bool { return p.Kind == PartKindFile }

// HasInlinePayload reports whether a FilePart carries its bytes inline
// rather than as a FileId reference.
func (p Part) HasInlinePayload() bool { return p.IsFile() && p.FileID == "" }

// HasFileRef reports whether a FilePart references the file store.
func (p Part) HasFileRef() bool { return p.IsFile() && p.FileID != "" }

// Base64 returns the inline payload as a base64 data string, for callers
// building data-URL content parts for a model gateway.
func (p Part) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Bytes)
}

// ConcatText concatenates the text of every TextPart in parts, the form
// used for interaction-edge message excerpts.
func ConcatText(parts []Part) string {
	var out []byte
	for _, p := range parts {
		if p.IsText() {
			if len(out) > 0 {
				out = append(out, ' ')
			}
			out = append(out, p.Text...)
		}
	}
	return string(out)
}
