// Package ports declares what the transfer orchestrator needs from the outside.
//
//   - [FileSource]: lists and reads regular files from the watched folder
//   - [FileSender]: posts one file or a bulk of files to the receiver
//   - [IdentityStore]: records of forwarded files, matched by content hash or identity key
//   - [ReportRepository]: the summary of the last run
//   - [Logger]: structured logging
//   - [HTTPClient]: injectable request execution
//
// internal/app depends only on these interfaces; internal/adapters implements
// them on the file system, net/http, SQLite, Pebble and zerolog.
package ports
