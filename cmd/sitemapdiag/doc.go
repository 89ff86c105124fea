// Package main provides the sitemapdiag CLI.
//
// sitemapdiag fetches a sitemap, lists every <loc> it declares, reports
// duplicated entries, and checks that each unique location answers 200. A
// HEAD request is tried first; a 404 is retried with GET before it is
// reported. Problems are printed and written to
// "<output-dir>/<sitemap URL>-sitemap-problems.txt".
//
// Usage:
//
//	sitemapdiag example.com
//	sitemapdiag --workers 8 --output-dir reports https://example.com/sitemap_pages.xml
//
// Configuration comes from flags, SITEMAPDIAG_* environment variables, and an
// optional YAML file passed with --config.
package main
