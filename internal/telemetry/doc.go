// Package telemetry implements the notification bus for the ingest service.
//
// The hub keeps a registry of connected real-time subscribers and fans each
// published update out to all of them. Delivery is best-effort: every
// subscriber has a bounded queue and a full queue drops the event for that
// subscriber only, so a slow client never blocks a publisher or its peers.
// There is no replay; a subscriber only sees events published while it is
// connected.
//
// Two transports sit on top of the hub: Server-Sent Events (ServeSSE) and
// WebSocket (ServeWS). Both unsubscribe when the connection goes away.
package telemetry
