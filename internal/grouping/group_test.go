package grouping

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"media-ingest/internal/media"
	"media-ingest/internal/mediatypes"
)

var testDay = time.Date(2023, 6, 1, 9, 30, 0, 0, time.UTC)

func photo(name string) Descriptor {
	return NewDescriptor(testDay, name, mediatypes.KindJPEG)
}

func video(name string) Descriptor {
	return NewDescriptor(testDay, name, mediatypes.KindQuickTime)
}

func names(e Entry) string {
	s := "main=" + e.Main.FullName
	if e.Edited != nil {
		s += " edited=" + e.Edited.FullName
	}
	if e.Live != nil {
		s += " live=" + e.Live.FullName
	}
	return s
}

func summary(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = names(e)
	}
	return out
}

func permutations(in []Descriptor) [][]Descriptor {
	if len(in) <= 1 {
		return [][]Descriptor{append([]Descriptor(nil), in...)}
	}
	var out [][]Descriptor
	for i := range in {
		rest := make([]Descriptor, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]Descriptor{in[i]}, p...))
		}
	}
	return out
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"IMG_0001.JPG", "IMG_0001"},
		{"IMG_E0001.JPG", "IMG_0001"},
		{"IMG_0001.MOV", "IMG_0001"},
		{"IMG_0001 (Edited).jpg", "IMG_0001"},
		{"IMG_0001(Edited).jpg", "IMG_0001"},
		{"IMG_0001-edited.jpg", "IMG_0001"},
		{"E0042.JPG", "0042"},
		{"DSCE0001.JPG", "DSCE0001"},
		{"Unedited.jpg", "Unedited"},
		{"holiday.png", "holiday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BaseName(tt.name); got != tt.expected {
				t.Errorf("BaseName(%q) = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}

func TestDescriptorEqualityIgnoresNameAndKind(t *testing.T) {
	a := photo("IMG_0001.JPG")
	b := video("IMG_0001.MOV")
	c := photo("IMG_E0001.JPG")

	if !a.Equal(b) || !a.Equal(c) {
		t.Error("descriptors with the same day and base name should be equal")
	}
	if a.LookupKey() == c.LookupKey() {
		t.Error("original and edited must have distinct lookup keys")
	}

	other := NewDescriptor(testDay.AddDate(0, 0, 1), "IMG_0001.JPG", mediatypes.KindJPEG)
	if a.Equal(other) {
		t.Error("descriptors on different days must not be equal")
	}
}

func TestDescriptorCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Descriptor
		want int
	}{
		{"shorter name first", photo("IMG_0001.JPG"), photo("IMG_E0001.JPG"), -1},
		{"longer name last", photo("IMG_E0001.JPG"), photo("IMG_0001.JPG"), 1},
		{"same length lexicographic", photo("IMG_0001.JPG"), photo("IMG_0002.JPG"), -1},
		{"earlier day wins over name", NewDescriptor(testDay.AddDate(0, 0, -1), "IMG_E9999.JPG", mediatypes.KindJPEG), photo("A.JPG"), -1},
		{"identical", photo("IMG_0001.JPG"), photo("IMG_0001.JPG"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGroupMainEditedTieBreak(t *testing.T) {
	orders := [][]Descriptor{
		{photo("IMG_0001.JPG"), photo("IMG_E0001.JPG")},
		{photo("IMG_E0001.JPG"), photo("IMG_0001.JPG")},
	}

	for i, in := range orders {
		t.Run(fmt.Sprintf("order %d", i), func(t *testing.T) {
			entries := Group(in)
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d: %v", len(entries), summary(entries))
			}
			e := entries[0]
			if e.Main.FullName != "IMG_0001.JPG" {
				t.Errorf("main = %s, want IMG_0001.JPG", e.Main.FullName)
			}
			if e.Edited == nil || e.Edited.FullName != "IMG_E0001.JPG" {
				t.Errorf("edited = %v, want IMG_E0001.JPG", e.Edited)
			}
		})
	}
}

func TestGroupLiveAttachment(t *testing.T) {
	entries := Group([]Descriptor{
		video("IMG_0001.MOV"),
		photo("IMG_E0001.JPG"),
		photo("IMG_0001.JPG"),
	})

	if len(entries) != 1 {
		t.Fatalf("live companion must not be standalone: %v", summary(entries))
	}
	if entries[0].Live == nil || entries[0].Live.FullName != "IMG_0001.MOV" {
		t.Errorf("live = %v, want IMG_0001.MOV", entries[0].Live)
	}
}

func TestGroupOrphanVideo(t *testing.T) {
	entries := Group([]Descriptor{photo("IMG_0001.JPG"), video("IMG_0099.MOV")})

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %v", summary(entries))
	}
	var clip *Entry
	for i := range entries {
		if entries[i].Main.FullName == "IMG_0099.MOV" {
			clip = &entries[i]
		}
	}
	if clip == nil {
		t.Fatal("orphan video was discarded")
	}
	if clip.Edited != nil || clip.Live != nil {
		t.Errorf("orphan video should stand alone, got %s", names(*clip))
	}
}

func TestGroupEditedWithoutOriginal(t *testing.T) {
	entries := Group([]Descriptor{photo("IMG_E0005.JPG")})
	if len(entries) != 1 || entries[0].Main.FullName != "IMG_E0005.JPG" || entries[0].Edited != nil {
		t.Errorf("edited-only file should be promoted to main, got %v", summary(entries))
	}
}

func TestGroupVideoPairs(t *testing.T) {
	entries := Group([]Descriptor{video("CLIP_E0007.MOV"), video("CLIP_0007.MOV")})
	if len(entries) != 1 {
		t.Fatalf("expected one video entry, got %v", summary(entries))
	}
	if entries[0].Main.FullName != "CLIP_0007.MOV" || entries[0].Edited == nil || entries[0].Edited.FullName != "CLIP_E0007.MOV" {
		t.Errorf("unexpected video pairing: %s", names(entries[0]))
	}
	if entries[0].Live != nil {
		t.Error("a video bucket never has a live companion")
	}
}

func TestGroupIgnoresOtherKinds(t *testing.T) {
	entries := Group([]Descriptor{
		photo("IMG_0001.JPG"),
		NewDescriptor(testDay, "IMG_0001.AAE", mediatypes.KindUnknown),
	})
	if len(entries) != 1 || entries[0].Edited != nil {
		t.Errorf("sidecar should be ignored, got %v", summary(entries))
	}
}

func TestGroupDuplicateDescriptor(t *testing.T) {
	entries := Group([]Descriptor{photo("IMG_0001.JPG"), photo("IMG_0001.JPG")})
	if len(entries) != 1 || entries[0].Edited != nil {
		t.Errorf("the same file twice must not pair with itself, got %v", summary(entries))
	}
}

func TestGroupThreeCollidingPhotos(t *testing.T) {
	in := []Descriptor{
		photo("IMG_0001.JPG"),
		photo("IMG_E0001.JPG"),
		photo("IMG_0001 (Edited).JPG"),
	}

	var first []string
	for _, p := range permutations(in) {
		got := summary(Group(p))
		if first == nil {
			first = got
			continue
		}
		if !reflect.DeepEqual(first, got) {
			t.Fatalf("collision result depends on input order: %v vs %v", first, got)
		}
	}

	want := []string{"main=IMG_0001.JPG edited=IMG_0001 (Edited).JPG"}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("got %v, want %v", first, want)
	}
}

func TestGroupEditedLivePhoto(t *testing.T) {
	heic := func(name string) Descriptor {
		return NewDescriptor(testDay, name, mediatypes.KindHEIC)
	}
	in := []Descriptor{
		heic("IMG_0001.HEIC"),
		heic("IMG_E0001.HEIC"),
		video("IMG_0001.MOV"),
		video("IMG_E0001.MOV"),
	}

	want := []string{"main=IMG_0001.HEIC edited=IMG_E0001.HEIC live=IMG_0001.MOV"}
	for _, p := range permutations(in) {
		if got := summary(Group(p)); !reflect.DeepEqual(got, want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestGroupExtraCompanionAbsorbed(t *testing.T) {
	entries := Group([]Descriptor{
		photo("IMG_0001.JPG"),
		video("IMG_0001.MP4"),
		video("IMG_0001.MOV"),
	})
	want := []string{"main=IMG_0001.JPG live=IMG_0001.MOV"}
	if got := summary(entries); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestGroupDeterministicAcrossPermutations(t *testing.T) {
	in := []Descriptor{
		photo("IMG_0001.JPG"),
		photo("IMG_E0001.JPG"),
		video("IMG_0001.MOV"),
		video("IMG_0099.MOV"),
		photo("IMG_0002.HEIC"),
		NewDescriptor(testDay.AddDate(0, 0, -3), "IMG_0003.JPG", mediatypes.KindJPEG),
	}

	want := summary(Group(in))
	for _, p := range permutations(in) {
		if got := summary(Group(p)); !reflect.DeepEqual(got, want) {
			t.Fatalf("Group not deterministic:\n got %v\nwant %v", got, want)
		}
	}
}

func TestEntryCompareAbsentSortsFirst(t *testing.T) {
	edited := photo("IMG_E0001.JPG")
	bare := Entry{Main: photo("IMG_0001.JPG")}
	withEdited := Entry{Main: photo("IMG_0001.JPG"), Edited: &edited}

	if bare.Compare(withEdited) >= 0 {
		t.Error("entry without edited should sort first")
	}
	if withEdited.Compare(bare) <= 0 {
		t.Error("entry with edited should sort last")
	}

	live := video("IMG_0001.MOV")
	withLive := Entry{Main: photo("IMG_0001.JPG"), Live: &live}
	if bare.Compare(withLive) >= 0 {
		t.Error("entry without live should sort first")
	}
}

func TestGroupEndToEnd(t *testing.T) {
	entries := Group([]Descriptor{
		video("IMG_0099.MOV"),
		photo("IMG_E0001.JPG"),
		video("IMG_0001.MOV"),
		photo("IMG_0001.JPG"),
	})

	want := []string{
		"main=IMG_0001.JPG edited=IMG_E0001.JPG live=IMG_0001.MOV",
		"main=IMG_0099.MOV",
	}
	if got := summary(entries); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestItemsResolvesHandles(t *testing.T) {
	files := []media.Handle{
		&media.File{Path: "/dcim/IMG_0001.JPG", Type: mediatypes.KindJPEG, Created: testDay},
		&media.File{Path: "/dcim/IMG_E0001.JPG", Type: mediatypes.KindJPEG, Created: testDay},
		&media.File{Path: "/dcim/IMG_0001.MOV", Type: mediatypes.KindQuickTime, Created: testDay},
		&media.File{Path: "/dcim/IMG_0099.MOV", Type: mediatypes.KindQuickTime, Created: testDay},
	}

	items := Items(files, func(h media.Handle) int64 {
		if h.Name() == "IMG_0001.JPG" {
			return 777
		}
		return 0
	})

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first := items[0]
	if first.ID != 777 {
		t.Errorf("stored id not applied, got %d", first.ID)
	}
	if first.Original != files[0] || first.Edited() != files[1] || first.Live != files[2] {
		t.Error("handles not resolved to the original objects")
	}
	if items[1].Original != files[3] || items[1].Edited() != nil || items[1].Live != nil {
		t.Error("standalone clip resolved incorrectly")
	}
}

func TestResolveDropsUnresolvableEntries(t *testing.T) {
	keep := &media.File{Path: "/a/IMG_0001.JPG", Type: mediatypes.KindJPEG, Created: testDay}
	descriptors, resolve := Index([]media.Handle{keep})

	ghost := photo("IMG_E0001.JPG")
	entries := Group(descriptors)
	entries = append(entries,
		Entry{Main: photo("IMG_0500.JPG")},
		Entry{Main: descriptors[0], Edited: &ghost},
	)

	items := Resolve(entries, resolve, nil)
	if len(items) != 1 {
		t.Fatalf("expected only the fully resolvable entry, got %d items", len(items))
	}
	if items[0].Original != keep || items[0].Edited() != nil {
		t.Error("unexpected resolution result")
	}
}
