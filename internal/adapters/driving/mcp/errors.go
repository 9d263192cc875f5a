// Package mcp provides an MCP (Model Context Protocol) server adapter for sercha-ask.
// It lets AI assistants search the document corpus and ask questions
// answered from it.
package mcp

import "errors"

// ErrMissingQuerySession is returned when no query session factory is provided.
var ErrMissingQuerySession = errors.New("mcp: query session factory is required")
