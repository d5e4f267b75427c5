// Package ark reads and writes Kaldi archives in text format.
//
// A text archive is a sequence of records, each an identifier followed by a
// bracketed block of matrix rows:
//
//	utt1  [
//	 0.1 0.2 0.3
//	 0.4 0.5 0.6 ]
//
// Reader turns a line stream into an ordered Archive, optionally keeping only
// the identifiers in a RetainFilter. Writer renders an Archive back into the
// same layout using shortest round-trip float formatting, so parsing the
// output reproduces every value bit-for-bit.
//
// Neither direction touches the filesystem; callers supply the lines or the
// io.Reader/io.Writer.
package ark
