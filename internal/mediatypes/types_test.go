package mediatypes

import "testing"

func TestKindForName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"IMG_0001.JPG", KindJPEG},
		{"IMG_0001.jpeg", KindJPEG},
		{"IMG_0001.HEIC", KindHEIC},
		{"IMG_0001.MOV", KindQuickTime},
		{"clip.mp4", KindMPEG4},
		{"IMG_0001.AAE", KindUnknown},
		{"noext", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindForName(tt.name); got != tt.expected {
				t.Errorf("KindForName(%q) = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}

func TestClassOf(t *testing.T) {
	tests := []struct {
		kind     string
		expected Class
	}{
		{KindJPEG, ClassImage},
		{KindHEIC, ClassImage},
		{KindQuickTime, ClassVideo},
		{KindMPEG4, ClassVideo},
		{"image/jpeg", ClassImage},
		{"video/quicktime", ClassVideo},
		{"com.example.raw-image", ClassImage},
		{"com.example.movie", ClassVideo},
		{KindUnknown, ClassOther},
		{"", ClassOther},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			if got := ClassOf(tt.kind); got != tt.expected {
				t.Errorf("ClassOf(%q) = %q, want %q", tt.kind, got, tt.expected)
			}
		})
	}
}

func TestMimeType(t *testing.T) {
	if got := MimeType(KindQuickTime); got != "video/quicktime" {
		t.Errorf("MimeType(quicktime) = %q", got)
	}
	if got := MimeType("image/webp"); got != "image/webp" {
		t.Errorf("MIME strings should pass through, got %q", got)
	}
	if got := MimeType(KindUnknown); got != "application/octet-stream" {
		t.Errorf("unknown kind should map to octet-stream, got %q", got)
	}
}

func TestIsMediaName(t *testing.T) {
	if !IsMediaName("a.jpg") || !IsMediaName("b.MOV") {
		t.Error("expected jpg and mov to be media")
	}
	if IsMediaName("c.AAE") || IsMediaName("notes.txt") {
		t.Error("sidecars and text files are not media")
	}
}
