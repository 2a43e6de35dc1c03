// Package loader reads signature records from delimited text, one
// "extension,signature,length" record per line.
package loader
