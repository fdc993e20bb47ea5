// Package validate sanitizes and bounds-checks inbound chat turns before they
// reach a model provider.
//
// Validation never panics or returns a bare error; it returns a Result that is
// either a sanitized message list or the first violation found. Checks run in a
// fixed order and stop at the first failure:
//
//  1. the list is missing, null, not an array or empty
//  2. the list has more than MaxMessages entries
//  3. per entry, in index order: role/content presence, role, content type,
//     content length, then the optional image (fields, MIME type, base64, size)
package validate

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf16"

	"streamchat/model"
)

const (
	MaxMessages      = 50
	MaxContentLength = 10000
	MaxImageBytes    = 5 * 1024 * 1024
)

// AllowedImageTypes lists the accepted attachment MIME types.
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Candidate is one inbound turn as decoded from the wire. Role and Content stay
// untyped until checked so that type errors are reported in check order rather
// than as a decode failure.
type Candidate struct {
	Role      any
	Content   any
	Timestamp time.Time
	Image     *CandidateImage

	// badImage marks an "image" value that is present but not an object of
	// strings; it fails the image step at this entry's turn.
	badImage bool
}

// CandidateImage is an unchecked image attachment.
type CandidateImage struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
	FileName string `json:"fileName,omitempty"`
}

// Result is the outcome of validation: exactly one of Messages or Err is set.
type Result struct {
	Messages []model.ChatMessage
	Err      *ValidationError
}

// OK reports whether validation succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

func fail(index int, kind Kind, format string, args ...any) Result {
	return Result{Err: &ValidationError{Index: index, Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// Request validates the raw value of the "messages" field of a chat request.
// Entries are decoded one at a time, so a malformed entry is reported at its
// own index and never ahead of the list-level checks.
func Request(raw json.RawMessage) Result {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fail(-1, KindEmpty, "Messages must be a non-empty array")
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return fail(-1, KindMalformed, "Messages must be a valid JSON array")
	}

	candidates := make([]Candidate, len(entries))
	for i, entry := range entries {
		candidates[i] = decodeCandidate(entry)
	}
	return Messages(candidates)
}

// decodeCandidate never fails: a non-object entry yields an empty Candidate,
// which is then rejected as missing role or content.
func decodeCandidate(raw json.RawMessage) Candidate {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Candidate{}
	}

	var c Candidate
	_ = json.Unmarshal(fields["role"], &c.Role)
	_ = json.Unmarshal(fields["content"], &c.Content)
	c.Timestamp = parseTimestamp(fields["timestamp"])

	if img, ok := fields["image"]; ok && !isNull(img) {
		c.Image = &CandidateImage{}
		if err := json.Unmarshal(img, c.Image); err != nil {
			c.Image = nil
			c.badImage = true
		}
	}
	return c
}

// parseTimestamp accepts an RFC 3339 string or Unix milliseconds. The value
// is advisory, so anything else is dropped.
func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
		return time.Time{}
	}
	var ms int64
	if json.Unmarshal(raw, &ms) == nil && ms > 0 {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Messages validates decoded candidates and returns the sanitized list.
func Messages(candidates []Candidate) Result {
	if len(candidates) == 0 {
		return fail(-1, KindEmpty, "Messages must be a non-empty array")
	}
	if len(candidates) > MaxMessages {
		return fail(-1, KindTooMany, "Too many messages. Maximum %d messages allowed", MaxMessages)
	}

	out := make([]model.ChatMessage, 0, len(candidates))
	for i, c := range candidates {
		msg, res := checkCandidate(i, c)
		if !res.OK() {
			return res
		}
		out = append(out, msg)
	}
	return Result{Messages: out}
}

func checkCandidate(i int, c Candidate) (model.ChatMessage, Result) {
	if isBlank(c.Role) || isBlank(c.Content) {
		return model.ChatMessage{}, fail(i, KindMissingField, "Message at index %d is missing role or content", i)
	}

	role, ok := c.Role.(string)
	if !ok || !model.Role(role).Valid() {
		return model.ChatMessage{}, fail(i, KindInvalidRole, "Invalid role %q at index %d", fmt.Sprint(c.Role), i)
	}

	content, ok := c.Content.(string)
	if !ok {
		return model.ChatMessage{}, fail(i, KindContentType, "Content at index %d must be a string", i)
	}

	if contentLength(content) > MaxContentLength {
		return model.ChatMessage{}, fail(i, KindContentTooLong,
			"Message at index %d exceeds maximum length of %d characters", i, MaxContentLength)
	}

	msg := model.ChatMessage{
		Role:      model.Role(role),
		Content:   strings.TrimSpace(content),
		Timestamp: c.Timestamp,
	}

	if c.badImage {
		return model.ChatMessage{}, fail(i, KindImageMissingField, "Image at index %d is missing data or mimeType", i)
	}
	if c.Image != nil {
		if res := checkImage(i, c.Image); !res.OK() {
			return model.ChatMessage{}, res
		}
		msg.Image = &model.ImageAttachment{
			Data:     c.Image.Data,
			MimeType: c.Image.MimeType,
			FileName: c.Image.FileName,
		}
	}

	return msg, Result{}
}

func checkImage(i int, img *CandidateImage) Result {
	if img.Data == "" || img.MimeType == "" {
		return fail(i, KindImageMissingField, "Image at index %d is missing data or mimeType", i)
	}
	if !slices.Contains(AllowedImageTypes, img.MimeType) {
		return fail(i, KindImageType, "Unsupported image type %q at index %d", img.MimeType, i)
	}

	decoded, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return fail(i, KindImageEncoding, "Image at index %d is not valid base64", i)
	}
	if len(decoded) > MaxImageBytes {
		return fail(i, KindImageTooLarge, "Image at index %d exceeds maximum size of %d bytes", i, MaxImageBytes)
	}
	return Result{}
}

// contentLength counts UTF-16 code units, so a character outside the Basic
// Multilingual Plane counts as two.
func contentLength(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// isBlank treats absent values and whitespace-only strings as missing.
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case bool:
		return !t
	case float64:
		return t == 0
	}
	return false
}

// FromMessages converts sanitized messages back to candidates so that a
// validated list can be validated again.
func FromMessages(messages []model.ChatMessage) []Candidate {
	out := make([]Candidate, len(messages))
	for i, msg := range messages {
		out[i] = Candidate{
			Role:      string(msg.Role),
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		}
		if msg.Image != nil {
			out[i].Image = &CandidateImage{
				Data:     msg.Image.Data,
				MimeType: msg.Image.MimeType,
				FileName: msg.Image.FileName,
			}
		}
	}
	return out
}
