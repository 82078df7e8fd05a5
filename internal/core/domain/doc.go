// Package domain defines the core business entities for document-locator.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - FileRecord: An indexed Drive document with its embedding
//   - FileSearchResult: A search projection with distance and similarity
//   - CrawlerState: Incremental-crawl resumption state per drive
//   - ConnectionMode: Credential profile selecting pool and secrets
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
