// Package sheets reads team scores from a spreadsheet and turns them into a
// ranked types.Snapshot.
//
// Two Source implementations exist:
//
//   - Client calls the Google Sheets values API
//     (GET {base}/{sheet_id}/values/{range}?key=...). Outbound requests are
//     spaced by a token-bucket limiter so that two requests are never closer
//     than the configured minimum interval, however often Fetch is called.
//   - Workbook reads a local .xlsx file, for development and offline use.
//
// Both map cells to entries through the same Schema: a header row supplies
// names, a value row supplies scores, and only the configured columns are
// read. Fetch never returns an error; failures come back as a Snapshot with
// Err and ErrKind set and no entries.
package sheets
