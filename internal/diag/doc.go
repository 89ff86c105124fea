// Package diag defines the types shared by the sitemap diagnostics pipeline:
// the problems it reports, the fetcher contract used for every HTTP request,
// and the typed errors that the CLI maps to exit codes.
package diag
