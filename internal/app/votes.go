package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Circle/internal/core"
	"github.com/dkeye/Circle/internal/domain"
)

type VoteAction int

const (
	VoteCreated VoteAction = iota + 1
	VoteRemoved
	VoteChanged
)

func (a VoteAction) String() string {
	switch a {
	case VoteCreated:
		return "created"
	case VoteRemoved:
		return "removed"
	case VoteChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// ReduceVote is the toggle rule: same value again removes the vote,
// a different value replaces it.
func ReduceVote(existing *domain.Vote, requested domain.VoteValue) VoteAction {
	switch {
	case existing == nil:
		return VoteCreated
	case existing.Value == requested:
		return VoteRemoved
	default:
		return VoteChanged
	}
}

// VoteReducer applies ReduceVote against the vote store.
type VoteReducer struct {
	Votes core.VoteStore
}

func (r VoteReducer) Apply(ctx context.Context, itemID domain.ItemID, uid domain.UserID, requested domain.VoteValue) (VoteAction, error) {
	if !requested.Valid() {
		return 0, fmt.Errorf("%w: vote must be 1 or -1", domain.ErrProtocol)
	}
	existing, err := r.Votes.GetVote(ctx, itemID, uid)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}
	if errors.Is(err, domain.ErrNotFound) {
		existing = nil
	}

	action := ReduceVote(existing, requested)
	switch action {
	case VoteCreated:
		err = r.Votes.CreateVote(ctx, &domain.Vote{ItemID: itemID, UserID: uid, Value: requested})
	case VoteRemoved:
		err = r.Votes.DeleteVote(ctx, itemID, uid)
	case VoteChanged:
		err = r.Votes.UpdateVote(ctx, &domain.Vote{ItemID: itemID, UserID: uid, Value: requested})
	}
	if err != nil {
		return 0, err
	}
	return action, nil
}
