// Package api implements the HTTP surface of the ingest service.
//
// Update requests are decoded here and handed to the ingest service;
// real-time subscriptions are handed to the telemetry hub. Every JSON
// response uses the {success, data, error} envelope except GET /, which
// returns a bare greeting.
package api
