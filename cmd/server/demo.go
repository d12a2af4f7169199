package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Circle/internal/adapters/auth"
	"github.com/dkeye/Circle/internal/adapters/store"
	"github.com/dkeye/Circle/internal/domain"
)

const (
	demoRoomID   domain.RoomID = 1
	demoTokenTTL               = 24 * time.Hour
)

var demoMembers = []domain.User{
	{ID: "demo-ann", Username: "Ann"},
	{ID: "demo-bob", Username: "Bob"},
	{ID: "demo-cat", Username: "Cat"},
}

// seedDemo makes sure a small circle exists and returns a token per member,
// so a local client can connect without the CRUD service. Safe to rerun.
func seedDemo(ctx context.Context, db *store.Store, tokens *auth.Verifier) (map[domain.UserID]string, error) {
	if _, err := db.GetRoom(ctx, demoRoomID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if err := db.CreateRoom(ctx, &domain.Room{ID: demoRoomID, Name: "Demo circle", Budget: 50000}); err != nil {
			return nil, err
		}
	}

	out := make(map[domain.UserID]string, len(demoMembers))
	for i, u := range demoMembers {
		if _, err := db.GetUserProfile(ctx, u.ID); errors.Is(err, domain.ErrNotFound) {
			if err := db.CreateUser(ctx, u); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}

		if _, err := db.GetMembership(ctx, u.ID, demoRoomID); errors.Is(err, domain.ErrNotFound) {
			role := domain.RoleMember
			if i == 0 {
				role = domain.RoleOwner
			}
			if err := db.AddMember(ctx, domain.Membership{RoomID: demoRoomID, UserID: u.ID, Role: role}); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}

		tok, err := tokens.Issue(u.ID, u.Username, demoTokenTTL)
		if err != nil {
			return nil, fmt.Errorf("issue demo token: %w", err)
		}
		out[u.ID] = tok
	}
	return out, nil
}

func logDemoTokens(toks map[domain.UserID]string) {
	for _, u := range demoMembers {
		log.Info().Str("module", "demo").Str("user", string(u.ID)).Uint("room", uint(demoRoomID)).Str("token", toks[u.ID]).Msg("demo member")
	}
}
