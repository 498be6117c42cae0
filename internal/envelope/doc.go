// Package envelope defines the versioned message envelope exchanged with
// the dashboard and its wire codec.
//
// Every message is wrapped in an Envelope carrying a type tag, an ISO-8601
// timestamp, the originating system id, and a sequence id. When compression
// is enabled the serialized envelope is gzipped and wrapped in an outer
// marker object {"compressed": true, "data": "<base64>"} which the decoder
// detects before parsing the inner structure.
package envelope
