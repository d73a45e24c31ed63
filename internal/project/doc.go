// Package project reads and writes files inside compose project directories.
//
// Every path is checked against the project's base directory before any
// filesystem access:
//   - ReadFile: return the full text of one file
//   - WriteFile: overwrite (or create) one file and read it back
//   - WriteCompose: create the project directory if needed and write its compose file
//   - Delete: remove a project directory tree after existence checks
//
// Project names are themselves checked against the compose root, so
// "../x" never names a project. WriteCompose is the only operation that
// creates directories.
package project
