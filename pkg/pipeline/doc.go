// Package pipeline drives items of a collection from local assets to minted
// tokens.
//
// RunSequential mints one item at a time from the cursor onwards and stops at
// the first failure, leaving the cursor on the last recorded item so a rerun
// resumes there. RunBatchedUpload pre-uploads assets in fixed windows of
// concurrent uploads and never touches the cursor.
package pipeline
