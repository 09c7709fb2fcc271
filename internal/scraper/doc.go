// Package scraper provides a page extractor that fetches an event page directly and
// parses its HTML.
//
// Fields are read from schema.org JSON-LD and microdata first, then from Open Graph
// meta tags, and finally from the page title and headings. Event dates embedded in
// titles are recognized in ISO (2025-03-01) and short month (Mar 1) forms.
package scraper
