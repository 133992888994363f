package meili

import (
	"errors"

	"github.com/kailas-cloud/meili/internal/transport/rest"
)

// ErrCanceled is matched (errors.Is) by any call aborted before a response
// was received. Such errors also match context.Canceled or
// context.DeadlineExceeded, whichever ended the call.
var ErrCanceled = rest.ErrCanceled

// ErrEmptyIdentifier is returned without contacting the server when an index
// uid or document id that belongs in the request path is empty.
var ErrEmptyIdentifier = errors.New("meili: empty identifier")

// RemoteError is a non-2xx answer from the server. StatusCode and the raw Body
// are always set; Message, ErrorCode, ErrorType and ErrorLink are filled when
// the body is a JSON error object.
type RemoteError = rest.Error

// TransportError is a failure to obtain any response: DNS, connect, TLS,
// socket timeout. Use errors.Unwrap to reach the net/http cause.
type TransportError = rest.NetworkError
