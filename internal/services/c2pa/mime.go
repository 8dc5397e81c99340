package c2pa

import (
	"path/filepath"
	"strings"
)

// fallbackMIME is submitted for unknown extensions; the engine is
// responsible for rejecting formats it does not support.
const fallbackMIME = "application/octet-stream"

var mimeByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
	".heic": "image/heic",
	".heif": "image/heif",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".svg":  "image/svg+xml",
	".dng":  "image/x-adobe-dng",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".pdf":  "application/pdf",
}

// MIMEType infers a content type from the file extension alone. Unknown
// extensions map to a generic binary type and are still submitted.
func MIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mime, ok := mimeByExtension[ext]; ok {
		return mime
	}
	return fallbackMIME
}
