package room

import (
	"context"
	"errors"

	"github.com/Seednode/tierclash/internal/tierlist"
)

var (
	ErrSessionNotFound    = errors.New("room: room not found")
	ErrNotAuthorized      = errors.New("room: not allowed")
	ErrConflict           = errors.New("room: concurrent update, try again")
	ErrCodeSpaceExhausted = errors.New("room: could not find a free room code")
	ErrStaleTurn          = errors.New("room: turn has already moved on")
)

// UpdateFunc computes the next state of a room from the current one.
// Returning an error aborts the write.
type UpdateFunc func(tierlist.Session) (tierlist.Session, error)

// Store persists rooms and fans out changes.
//
// Update is a compare-and-set: the write only lands if nobody else wrote
// the room since it was read, otherwise fn is re-run against the fresh
// state. Subscribers receive full snapshots and a nil snapshot when the
// room is deleted. Snapshots may arrive out of order; compare Version.
type Store interface {
	Create(ctx context.Context, s tierlist.Session) (tierlist.Session, error)
	Fetch(ctx context.Context, code string) (tierlist.Session, error)
	Update(ctx context.Context, code string, fn UpdateFunc) (tierlist.Session, error)
	Delete(ctx context.Context, code string) error
	Subscribe(ctx context.Context, code string, fn func(*tierlist.Session)) (unsubscribe func(), err error)
	Close() error
}

// Sweeper is implemented by stores that need help expiring idle rooms.
type Sweeper interface {
	Sweep(ctx context.Context) []string
}
