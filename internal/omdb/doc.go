// Package omdb provides an HTTP client for the OMDb catalog API.
//
// # Overview
//
// The client performs the two lookups Marquee needs: a title search and a
// single-record detail lookup. Each call is one request and one response. The
// client keeps no state between calls, does not retry, and only applies a
// timeout or rate limit when the caller opts in.
//
// # Endpoints
//
// The API has a single endpoint that switches on its query parameters:
//
//	GET /?s=<query>&apikey=<key>   search by title
//	GET /?t=<title>&apikey=<key>   detail by title
//	GET /?i=<imdb id>&apikey=<key> detail by id
//
// # Outcomes
//
// Zero search matches and a missing detail record are successful results,
// reported as StatusEmpty and DetailResult.Found == false. Failures use three
// error types:
//
//   - *TransportError: no usable response (network failure, cancelled
//     context, HTTP error status without a message)
//   - *DecodeError: the body was not the expected JSON shape
//   - *RemoteError: the API refused the request with a message, for example
//     "Invalid API key!" or "Too many results."
//
// Request URLs carry the api key, so transport errors never include them.
//
// # Optional fields
//
// Every descriptive field is a Text. Missing keys, null, blank strings and
// the "N/A" marker all decode to the absent value; substitute a placeholder
// only when rendering.
package omdb
