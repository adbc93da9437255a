// Package audit implements async event dispatching for security-relevant operations.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, logr, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: structured audit record with timestamp, type, tenant, user, token hash, IP, metadata.
//
// # Failure policy
//
// Audit is bookkeeping. A full buffer, a cancelled context or a panicking
// sink loses the event and bumps a counter; none of them fail the request
// that produced it.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import authgate or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
