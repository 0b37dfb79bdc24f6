// Package pinning uploads named blobs to a content-addressed pinning service
// and returns their content address.
//
// PinataClient talks to the Pinata pinning API with a JWT. Failures are
// classified with minterr: 401 and 403 are auth errors, transport failures
// and 408, 425, 429 and 5xx responses are transient, anything else is a
// rejected upload. Clients never retry on their own.
package pinning
