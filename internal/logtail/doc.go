// Package logtail reads the tail of Marquee's log file for the in-app log view.
//
// Read keeps a ring buffer of the last n lines, so memory stays bounded by n
// regardless of file size. Each line is decoded as a zerolog JSON event;
// lines that are not JSON (console format, partial writes) are kept verbatim
// as the entry message.
//
// A missing log file is not an error: Read returns no entries.
package logtail
