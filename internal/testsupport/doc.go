// Package testsupport provides helpers shared across package tests,
// primarily temp-directory backed configuration and store construction.
package testsupport
