// Package ingest implements the reading update flow: validate the request,
// upsert the latest value, broadcast the change and record an audit entry.
//
// Service is the only writer the HTTP layer talks to. It depends on its
// collaborators through the ports in ports.go so each can be faked in tests.
package ingest
