// Package source defines where raw media comes from.
//
// Each implementation lives in a subpackage: filesystem walks a media
// folder, device talks to a mounted camera through a serial transfer queue,
// and library reads a photo library export database. Sources only
// enumerate; thumbnails and downloads go through the providers each
// subpackage exposes for the acquisition coordinators.
package source
