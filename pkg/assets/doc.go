// Package assets reads per-item images and metadata descriptors and rewrites
// descriptors in place.
//
// Items are addressed by a dense integer id in [0, N). The filesystem layout is
//
//	<dir>/images/<id>.<ext>
//	<dir>/metadata/<id>.json
//
// and the Cloud Storage layout mirrors it under an optional object prefix.
// Every operation validates the id before touching storage, and descriptor
// writes replace the previous descriptor atomically.
package assets
