// Package dataset loads record.Documents from JSON files.
//
// Two layouts are supported, chosen by file extension:
//
//   - .json: a single array of objects
//   - .jsonl, .ndjson: one object per line, blank lines ignored
//
// A trailing .zst or .lz4 extension selects Zstandard or LZ4 frame
// decompression, e.g. "words.jsonl.zst". Names without a known layout
// extension are sniffed: input starting with '[' is an array, anything else
// is read line by line.
package dataset
