// Package sitemap turns user input into a sitemap URL, retrieves and parses
// the sitemap document, and extracts and deduplicates its <loc> entries.
package sitemap
