// Package mimeext maps media MIME types to file extensions and back.
package mimeext

import (
	"strings"
)

const (
	// DefaultExt is the extension used when MIME is unknown or empty.
	DefaultExt = "mp4"

	ExtM4A  = "m4a"
	ExtWebM = "webm"
	Ext3GP  = "3gp"
	ExtFLV  = "flv"
	ExtGIF  = "gif"

	MimeVideoMP4  = "video/mp4"
	MimeAudioMP4  = "audio/mp4"
	MimeVideoWebM = "video/webm"
	MimeAudioWebM = "audio/webm"
	MimeVideo3GPP = "video/3gpp"
	MimeVideoFLV  = "video/x-flv"
	MimeImageGIF  = "image/gif"
)

var byMime = map[string]string{
	MimeVideoMP4:  DefaultExt,
	MimeAudioMP4:  ExtM4A,
	MimeVideoWebM: ExtWebM,
	MimeAudioWebM: ExtWebM,
	MimeVideo3GPP: Ext3GP,
	MimeVideoFLV:  ExtFLV,
	MimeImageGIF:  ExtGIF,
}

var byExt = map[string]string{
	DefaultExt: MimeVideoMP4,
	ExtM4A:     MimeAudioMP4,
	ExtWebM:    MimeVideoWebM,
	Ext3GP:     MimeVideo3GPP,
	ExtFLV:     MimeVideoFLV,
	ExtGIF:     MimeImageGIF,
}

// base strips parameters such as codecs from a MIME type.
func base(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return mime
}

// ExtFromMime returns file extension (without dot) for given mime type.
// Falls back to subtype or mp4 if unknown.
func ExtFromMime(mime string) string {
	b := base(mime)
	if b == "" {
		return DefaultExt
	}
	if ext, ok := byMime[b]; ok {
		return ext
	}
	parts := strings.Split(b, "/")
	if len(parts) == 2 && parts[1] != "" {
		return strings.TrimPrefix(parts[1], "x-")
	}
	return DefaultExt
}

// MimeFromExt returns the MIME type for an extension, with or without dot,
// and application/octet-stream when unknown.
func MimeFromExt(ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if m, ok := byExt[ext]; ok {
		return m
	}
	return "application/octet-stream"
}
