/*
Package log provides structured logging for ClaudeFS using zerolog.

All subsystems obtain a component-scoped logger via WithComponent and
attach domain identifiers (inode, device, site, shard) as structured
fields rather than formatting them into the message string.
*/
package log
