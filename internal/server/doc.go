// Package server implements the MCP (Model Context Protocol) server for the
// mosaic pipeline.
//
// This package provides a JSON-RPC 2.0 server that exposes corpus building and
// mosaic composition through the MCP protocol, so MCP clients can drive the
// same operations as the command line.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Corpus Operations:
//   - mosaic_build_corpus: Build a tile file from a directory of images
//   - mosaic_corpus_info: Describe a tile file
//
// Composition:
//   - mosaic_compose: Render a mosaic of a target image
//
// Color Analysis:
//   - mosaic_representative_colors: Reduce an image to its representative colors
//   - mosaic_nearest_tiles: Query the tiles closest to a color
//
// # Caching
//
// Decoded target images are cached by path. Tile files are cached by path
// together with their color index and reloaded when the file changes on disk
// or is rebuilt through mosaic_build_corpus.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New()
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
