// Package textutil provides filename sanitization and the string
// normalization rules behind metadata dedup keys.
package textutil
