// Package server exposes the redaction pipeline as an MCP (Model Context
// Protocol) server.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logs go to stderr, never stdout.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - logo_redact_document: run a full job from an input location to an
//     output location, optionally writing the audit JSON
//   - logo_detect_page: detect on a single page and return its audit record
//     without redacting anything
//   - logo_list_templates: list reference images, template variants and
//     format profiles
//
// Locations are local paths or az://container/blob when Azure storage is
// configured.
//
// # Errors
//
// Tool failures return JSON-RPC error code -32000 with the job error kind
// (configuration, render, classifier, validation, cancelled, io) in the
// error data.
package server
