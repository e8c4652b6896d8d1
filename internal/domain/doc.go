// Package domain holds the entities of dropship and the errors callers match on.
//
// Nothing here touches the file system, the network or a database.
//
//   - [FileRecord]: a file that was forwarded, or is tentatively being forwarded in bulk mode
//   - [LocalFile]: a regular file read from the watched folder, with its identity key
//   - [Batch]: the uploads of one bulk request plus the record IDs to delete if it fails
//   - [Result]: the outcome of one transfer run
//   - [RunReport]: the persisted summary of the last run
package domain
