// Package docserve provides an on-demand documentation retrieval service.
// It scrapes structured technical documentation from configured external
// origins, caches results in a two-tier (memory + file) cache, and serves
// them to clients over a JSON-RPC style protocol with a streaming and a
// direct request/response binding.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency or concern (e.g., cache/, scrape/, sse/).
package docserve
