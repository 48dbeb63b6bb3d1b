// Package strava talks to the Strava REST API: it exchanges the refresh token
// for an access token, lists the athlete's activities and fetches the GPS
// streams of individual activities.
//
// Requests are strictly sequential. Every method takes a context and returns
// errors wrapped with the failing operation; HTTP status failures surface as
// *httpclient.HTTPError.
package strava
