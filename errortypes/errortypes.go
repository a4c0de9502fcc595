package errortypes

// Timeout should be used to flag that a backend call failed to complete because its context
// deadline expired before a response was received.
type Timeout struct {
	Message string
}

func (err *Timeout) Error() string {
	return err.Message
}

func (err *Timeout) Code() int {
	return TimeoutErrorCode
}

func (err *Timeout) Severity() Severity {
	return SeverityFatal
}

// BadInput should be used when returning errors which are caused by bad input, either from the
// configuration or from the host feeding document and intersection events.
// It should _not_ be used if the error is a remote issue (e.g. failed to send the impression).
type BadInput struct {
	Message string
}

func (err *BadInput) Error() string {
	return err.Message
}

func (err *BadInput) Code() int {
	return BadInputErrorCode
}

func (err *BadInput) Severity() Severity {
	return SeverityFatal
}

// BadServerResponse should be used when returning errors which are caused by bad/unexpected behavior on the remote server.
//
// For example:
//
//   - The backend responded with a 500
//   - The backend gave a malformed or unexpected response.
//
// These should not be used to log _connection_ errors (e.g. "couldn't find host"). Use FailedToRequest for those.
type BadServerResponse struct {
	Message    string
	StatusCode int
}

func (err *BadServerResponse) Error() string {
	return err.Message
}

func (err *BadServerResponse) Code() int {
	return BadServerResponseErrorCode
}

func (err *BadServerResponse) Severity() Severity {
	return SeverityFatal
}

// FailedToRequest should be used when the request never produced a response: DNS failures,
// refused connections, broken transports.
type FailedToRequest struct {
	Message string
}

func (err *FailedToRequest) Error() string {
	return err.Message
}

func (err *FailedToRequest) Code() int {
	return FailedToRequestErrorCode
}

func (err *FailedToRequest) Severity() Severity {
	return SeverityFatal
}

// PoolSaturated is returned when an impression could not be handed to the dispatch pool.
// The impression is lost; it is never queued for a later attempt.
type PoolSaturated struct {
	Message string
}

func (err *PoolSaturated) Error() string {
	return err.Message
}

func (err *PoolSaturated) Code() int {
	return PoolSaturatedErrorCode
}

func (err *PoolSaturated) Severity() Severity {
	return SeverityFatal
}

// FailedToMarshal is returned when an outbound body could not be encoded.
type FailedToMarshal struct {
	Message string
}

func (err *FailedToMarshal) Error() string {
	return err.Message
}

func (err *FailedToMarshal) Code() int {
	return FailedToMarshalErrorCode
}

func (err *FailedToMarshal) Severity() Severity {
	return SeverityFatal
}

// FailedToUnmarshal is returned when a backend answered 2xx with a body that could not be decoded.
type FailedToUnmarshal struct {
	Message string
}

func (err *FailedToUnmarshal) Error() string {
	return err.Message
}

func (err *FailedToUnmarshal) Code() int {
	return FailedToUnmarshalErrorCode
}

func (err *FailedToUnmarshal) Severity() Severity {
	return SeverityFatal
}

// Warning is a generic non-fatal error. Throughout the codebase, an error can
// only be a warning if it's of the type defined below
type Warning struct {
	Message     string
	WarningCode int
}

func (err *Warning) Error() string {
	return err.Message
}

func (err *Warning) Code() int {
	return err.WarningCode
}

func (err *Warning) Severity() Severity {
	return SeverityWarning
}
