// Package mediatypes maps file names to type identifiers and classifies
// those identifiers as image, video, or other.
//
// Sources report a "kind" string per raw item. Cameras and library exports
// use uniform type identifiers (public.jpeg, com.apple.quicktime-movie),
// the filesystem source derives one from the extension:
//
//	kind := mediatypes.KindForName("IMG_0001.MOV") // com.apple.quicktime-movie
//	mediatypes.IsVideoKind(kind)                    // true
//
// Grouping only needs the image/video distinction; the specific identifier
// is kept so that an edited JPEG of a HEIC original stays distinguishable.
package mediatypes
