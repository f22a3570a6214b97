package models

import "strings"

var mimeExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// BlobName returns the file name under which this photo's bytes are stored
// in the photo directory: the id plus the extension for its mime type.
func (p *Photo) BlobName() string {
	if ext, ok := mimeExt[p.Mime]; ok {
		return p.ID + ext
	}
	return p.ID
}

// MimeForExt maps a file extension (with leading dot, any case) to the photo
// mime type, or "" when unknown.
func MimeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	}
	return ""
}

// PhotoIDFromBlobName strips the extension from a blob file name, recovering
// the photo id.
func PhotoIDFromBlobName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}
