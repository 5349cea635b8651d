// Package core contains the canonical delivery-timeline domain types, store
// contracts, and error envelope. Higher-level packages (schema, repository,
// enrich, session, inbound) depend on this package; core must not depend on
// any of them or on a concrete transport.
package core
