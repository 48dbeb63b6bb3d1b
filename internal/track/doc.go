// Package track turns provider activities and their GPS streams into the
// artifacts published for the map: a GeoJSON feature collection, the latest
// known position, the sync state record and an optional GPX document.
//
// The collection is rebuilt from scratch on every run, so an activity deleted
// upstream disappears from the output on the next run.
package track
