package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrBadFeed marks a response that could not be read as a podcast feed.
	ErrBadFeed = errors.New("bad feed")
	// ErrUnreachable marks a feed host that could not be reached or refused the request.
	ErrUnreachable = errors.New("feed host unreachable")

	errNoEpisodes = errors.New("feed has no playable episodes")
)

type Kind int

const (
	KindBadFeed Kind = iota
	KindUnreachable
)

func (k Kind) String() string {
	if k == KindUnreachable {
		return "unreachable"
	}
	return "bad-feed"
}

// Error is the failure result of Loader.Load.
type Error struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrBadFeed:
		return e.Kind == KindBadFeed
	case ErrUnreachable:
		return e.Kind == KindUnreachable
	}
	return false
}
