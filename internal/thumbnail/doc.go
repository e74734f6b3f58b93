// Package thumbnail decodes thumbnails, crops them square and caches them.
//
// Decoding tries libvips (decode-time shrinking), then imaging, then an
// ffmpeg frame grab; videos always go through ffmpeg. CropSquare is the
// post-processing step the thumbnail coordinator applies before storing.
// Cache implements the coordinator's cache contract with a bounded memory
// tier over md5-named JPEG files.
package thumbnail
