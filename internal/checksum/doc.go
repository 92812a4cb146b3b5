// Package checksum content-hashes files. It is pure and holds no state;
// the resulting digest is the catalog's content dedup key.
package checksum
