// Package artifacts resolves artifact references against a set of named,
// typed credentials. It streams raw artifact bytes through the Downloader and
// answers name and version queries for index-based sources through the
// Resolver, without downloading the artifacts themselves.
package artifacts
