package sonos

import "errors"

// Domain errors for the Sonos bridge package.
var (
	// ErrSOAPFault is returned when a player answers with a SOAP fault.
	ErrSOAPFault = errors.New("sonos: soap fault")

	// ErrBadResponse is returned when a response cannot be decoded.
	ErrBadResponse = errors.New("sonos: malformed response")

	// ErrNoResponse is returned when an SSDP search gets no player answer.
	ErrNoResponse = errors.New("sonos: no player answered search")
)
