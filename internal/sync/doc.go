// Package sync orchestrates a single synchronization run.
//
// A run is strictly linear and single threaded:
//
//  1. take the run lock (when configured)
//  2. exchange the refresh token for an access token
//  3. list the fixed number of activity pages and sort them by start date
//  4. fetch the streams of every activity and build the feature collection
//  5. write the track, the latest position, the state record and the optional GPX export
//
// Any failure aborts the run and is returned as an *Error naming the stage.
// Outputs written before the failure stay in place.
package sync
