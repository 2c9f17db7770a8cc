// Package server implements the MCP (Model Context Protocol) server for
// turning webpage sketches into layouts and pages.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logs go to stderr. Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load a sketch and get metadata
//   - image_dimensions: Get width and height
//
// Layout Stages (no side effects, except the optional annotated image):
//   - layout_detect: Detect UI elements
//   - layout_ocr: Recognize handwritten words
//   - layout_fuse: Attach words to elements and order them
//   - layout_cluster: Group elements into sections
//
// Layout History:
//   - layout_build: Build a sketch's layout and merge it into the history file
//   - layout_history: List or read history entries
//   - layout_generate: Build, merge, then generate the page's React code
//
// # Image Caching
//
// Images are cached by path across tool calls. layout_build and
// layout_generate evict the sketch first, since it is usually redrawn
// between calls.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A failed code generation is not a tool error: layout_generate returns the
// saved layout with generate_error set.
package server
