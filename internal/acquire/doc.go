// Package acquire downloads the numbered transport-stream segments behind a
// locator template.
//
// The template carries one counter token, {counter} or {counter:<directive>}.
// Neither the first index nor the zero padding the server expects is known up
// front, so the Acquirer probes a small set of start counters and counter
// formats until a response validates as a TS segment, then walks the counter
// upward until the first response that does not. That first failure is the
// normal end of the stream, not an error.
//
// A template without a token is fetched as one complete resource instead.
package acquire
