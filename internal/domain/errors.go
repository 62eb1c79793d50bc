package domain

// DomainError represents a domain-specific error
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// Custom errors
var (
	ErrNoAddresses        = NewDomainError("at least one address is required")
	ErrNoClientMatch      = NewDomainError("no client matched the given addresses")
	ErrClientNotFound     = NewDomainError("client not found")
	ErrMeetingNotFound    = NewDomainError("meeting event not found")
	ErrMeetingTerminal    = NewDomainError("meeting event is in a terminal state")
	ErrInvalidTransition  = NewDomainError("invalid meeting state transition")
	ErrUnmatchedNotFound  = NewDomainError("unmatched item not found")
	ErrDuplicateAgenda    = NewDomainError("agenda already generated for this event")
	ErrClientDeactivated  = NewDomainError("client record is deactivated")
	ErrOperatorNotFound   = NewDomainError("operator not found")
)
