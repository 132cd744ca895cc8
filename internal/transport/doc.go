// Package transport dispatches rendered statements and exposes the replies
// as an ordered, cancellable sequence of raw payloads.
//
// Each dispatch walks a small state machine:
//
//	Idle → Dispatching → Completed | Failed          (request/response)
//	Idle → Dispatching → Streaming → Completed | Failed   (streaming)
//
// Completed and Failed are terminal and written at most once. This layer
// never retries; retry policy belongs to the caller.
//
// Two bindings are provided by Client:
//   - request/response: POST the statement to <address>/api/taxiql and
//     deliver the response body as the single payload.
//   - streaming: open a WebSocket to <address>/api/query/taxiql (scheme
//     upgraded http→ws, https→wss), send a JSON envelope as the first
//     frame, and deliver every inbound frame as one payload.
package transport
