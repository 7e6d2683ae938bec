package constants

const (
	QueryParamError        = "error"
	QueryParamCodeVerifier = "code_verifier"

	// OAuthErrorAccessDenied is the error code a provider sends back when the
	// user declines consent. It is an expected outcome, not a failure.
	OAuthErrorAccessDenied = "access_denied"

	OutputRequestSucceeded = "request_succeeded"
	OutputRequestError     = "request_error"

	// SecretMask replaces instance-wide secret values in flow outputs.
	SecretMask = "******"

	HeaderAccept      = "Accept"
	HeaderContentType = "Content-Type"

	ContentTypeJSON       = "application/json"
	ContentTypeURLEncoded = "application/x-www-form-urlencoded"
)
