package domain

import "errors"

// Error kinds attached to every fetch and search failure. Adapters wrap the
// underlying cause with one of these so callers can branch with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTransport       = errors.New("transport error")
	ErrDeserialization = errors.New("deserialization error")
	ErrStore           = errors.New("store error")
	ErrCancelled       = errors.New("cancelled")
)

var kinds = []struct {
	err   error
	label string
}{
	{ErrInvalidArgument, "invalid_argument"},
	{ErrCancelled, "cancelled"},
	{ErrStore, "store"},
	{ErrDeserialization, "deserialization"},
	{ErrTransport, "transport"},
}

// KindOf returns a short label for the error kind carried by err,
// "ok" for nil and "unknown" when no kind is attached.
func KindOf(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.label
		}
	}
	return "unknown"
}
