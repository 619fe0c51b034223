package discord

import (
	"strings"

	apperrors "pcaplink/pkg/errors"
)

var captureExtensions = []string{".pcap", ".pcapng"}

// IsCaptureFile matches the capture extensions case-sensitively.
func IsCaptureFile(filename string) bool {
	for _, ext := range captureExtensions {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

// SelectAttachment returns the first capture attachment in upstream order.
// Later or larger captures are never preferred.
func SelectAttachment(msg *Message) (*Attachment, error) {
	if msg != nil {
		for i := range msg.Attachments {
			if IsCaptureFile(msg.Attachments[i].Filename) {
				return &msg.Attachments[i], nil
			}
		}
	}
	return nil, apperrors.ErrNoMatchingAttachment
}

// LooksLikeCapture is the looser check used on gateway messages: the
// lowercased filename only has to contain ".pcap".
func LooksLikeCapture(filename string) bool {
	return strings.Contains(strings.ToLower(filename), ".pcap")
}
