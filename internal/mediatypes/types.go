package mediatypes

import (
	"path/filepath"
	"strings"
)

// Class is the coarse media class of a type identifier.
type Class string

const (
	// ClassImage is a still photo.
	ClassImage Class = "image"
	// ClassVideo is a movie clip, including live-photo companions.
	ClassVideo Class = "video"
	// ClassOther is anything grouping ignores (sidecars, unknown files).
	ClassOther Class = "other"
)

// Type identifiers used by the sources. They follow the uniform type
// identifier naming cameras and photo libraries report.
const (
	KindJPEG      = "public.jpeg"
	KindPNG       = "public.png"
	KindHEIC      = "public.heic"
	KindHEIF      = "public.heif"
	KindTIFF      = "public.tiff"
	KindGIF       = "com.compuserve.gif"
	KindWebP      = "org.webmproject.webp"
	KindDNG       = "com.adobe.raw-image"
	KindQuickTime = "com.apple.quicktime-movie"
	KindMPEG4     = "public.mpeg-4"
	KindAVI       = "public.avi"
	KindM4V       = "com.apple.m4v-video"
	KindUnknown   = "public.data"
)

// extensionKinds maps lowercase extensions to type identifiers.
var extensionKinds = map[string]string{
	".jpg":  KindJPEG,
	".jpeg": KindJPEG,
	".png":  KindPNG,
	".heic": KindHEIC,
	".heif": KindHEIF,
	".tif":  KindTIFF,
	".tiff": KindTIFF,
	".gif":  KindGIF,
	".webp": KindWebP,
	".dng":  KindDNG,
	".mov":  KindQuickTime,
	".mp4":  KindMPEG4,
	".avi":  KindAVI,
	".m4v":  KindM4V,
}

// kindClasses classifies known type identifiers.
var kindClasses = map[string]Class{
	KindJPEG:      ClassImage,
	KindPNG:       ClassImage,
	KindHEIC:      ClassImage,
	KindHEIF:      ClassImage,
	KindTIFF:      ClassImage,
	KindGIF:       ClassImage,
	KindWebP:      ClassImage,
	KindDNG:       ClassImage,
	KindQuickTime: ClassVideo,
	KindMPEG4:     ClassVideo,
	KindAVI:       ClassVideo,
	KindM4V:       ClassVideo,
}

// mimeTypes maps type identifiers to MIME types.
var mimeTypes = map[string]string{
	KindJPEG:      "image/jpeg",
	KindPNG:       "image/png",
	KindHEIC:      "image/heic",
	KindHEIF:      "image/heif",
	KindTIFF:      "image/tiff",
	KindGIF:       "image/gif",
	KindWebP:      "image/webp",
	KindDNG:       "image/x-adobe-dng",
	KindQuickTime: "video/quicktime",
	KindMPEG4:     "video/mp4",
	KindAVI:       "video/x-msvideo",
	KindM4V:       "video/x-m4v",
}

// KindForName returns the type identifier for a file name based on its
// extension, or KindUnknown.
func KindForName(name string) string {
	if kind, ok := extensionKinds[strings.ToLower(filepath.Ext(name))]; ok {
		return kind
	}
	return KindUnknown
}

// ClassOf classifies a type identifier. MIME strings ("image/jpeg",
// "video/quicktime") are accepted as well since some exports store those.
func ClassOf(kind string) Class {
	if class, ok := kindClasses[kind]; ok {
		return class
	}
	lower := strings.ToLower(kind)
	switch {
	case strings.HasPrefix(lower, "image/"):
		return ClassImage
	case strings.HasPrefix(lower, "video/"):
		return ClassVideo
	case strings.Contains(lower, "movie"), strings.Contains(lower, "video"):
		return ClassVideo
	case strings.Contains(lower, "image"):
		return ClassImage
	}
	return ClassOther
}

// IsImageKind reports whether kind describes a still image.
func IsImageKind(kind string) bool {
	return ClassOf(kind) == ClassImage
}

// IsVideoKind reports whether kind describes a video.
func IsVideoKind(kind string) bool {
	return ClassOf(kind) == ClassVideo
}

// MimeType returns the MIME type for a type identifier, passing MIME
// strings through unchanged.
func MimeType(kind string) string {
	if mime, ok := mimeTypes[kind]; ok {
		return mime
	}
	if strings.Contains(kind, "/") {
		return kind
	}
	return "application/octet-stream"
}

// IsMediaName reports whether a file name has a recognized media extension.
func IsMediaName(name string) bool {
	return ClassOf(KindForName(name)) != ClassOther
}
