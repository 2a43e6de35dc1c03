// Package memory provides typed object pools used on hot write paths,
// such as the frame buffers of the entry WAL.
package memory
