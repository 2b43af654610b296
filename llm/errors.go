package llm

import "errors"

var (
	// ErrCollaboratorUnavailable marks a transport or service failure while
	// talking to the chat model. Generation retries it; classification
	// surfaces it immediately.
	ErrCollaboratorUnavailable = errors.New("llm collaborator unavailable")

	// ErrClassificationParse marks classifier output that could not be read
	// as the expected structure. Never retried; the turn is abandoned with
	// session state untouched.
	ErrClassificationParse = errors.New("classification parse")

	// ErrDocumentParse marks generator output that is not valid JSON even
	// after the amended-prompt retry. The raw text is still returned, with
	// the document flagged unparsed, since a human may salvage it.
	ErrDocumentParse = errors.New("document parse")
)
