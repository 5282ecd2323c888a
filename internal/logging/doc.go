// Package logging wires structured slog output to a size-rotated file under
// ~/.catalog/logs/. Interactive commands tee records to stderr; the MCP server
// logs to the file only because stdout and stderr belong to the protocol.
package logging
