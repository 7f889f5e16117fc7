/*
Package streaming writes long-lived or large HTTP responses without letting
a stalled client hold the handler.

Writer sets a write deadline through http.ResponseController before every
chunk, so a client that stops reading fails the write with ErrWriteTimeout
instead of blocking. Writers that do not support deadlines, such as
httptest.ResponseRecorder, are written to without one.

Send writes a complete body, such as a full-resolution image:

	w.Header().Set("Content-Type", img.MimeType)
	w.WriteHeader(http.StatusOK)
	err := streaming.Send(r.Context(), w, img.Data, streaming.DefaultConfig())

EventStream frames Server-Sent Events and flushes each one:

	stream := streaming.NewEventStream(r.Context(), w, streaming.DefaultConfig())
	defer stream.Close()
	stream.Event("scan-progress", scanID, payload)

Errors can be checked with errors.Is against ErrWriteTimeout, ErrClientGone
and ErrStreamCanceled. ErrClientGone is not a server error.

Middleware that wraps the response writer must implement
Unwrap() http.ResponseWriter for deadlines to reach the connection.
*/
package streaming
