package room

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/tierclash/internal/tierlist"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	seed := tierlist.Seed(40)
	seeds := func() tierlist.Seed {
		seed++
		return seed
	}

	return NewService(NewMemoryStore(quartz.NewMock(t), time.Hour), quartz.NewMock(t), WithSeedSource(seeds))
}

// startedRoom returns a room with the host and two more players, running
// the mie-instan pack with seed 42.
func startedRoom(t *testing.T, svc *Service) (tierlist.Session, []tierlist.Player) {
	t.Helper()
	ctx := context.Background()

	session, host, err := svc.CreateRoom(ctx, "Ana")
	require.NoError(t, err)

	players := []tierlist.Player{host}
	for _, name := range []string{"Budi", "Citra"} {
		_, p, err := svc.JoinRoom(ctx, session.Code, name, "")
		require.NoError(t, err)
		players = append(players, p)
	}

	_, err = svc.Start(ctx, session.Code, host.ID)
	require.NoError(t, err)

	session, err = svc.SelectPack(ctx, session.Code, host.ID, "mie-instan")
	require.NoError(t, err)
	require.Equal(t, tierlist.Seed(42), session.Seed)

	return session, players
}

func TestCreateAndJoin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	session, host, err := svc.CreateRoom(ctx, "  Ana ")
	require.NoError(t, err)
	assert.Equal(t, "Ana", host.Name)
	assert.Equal(t, host.ID, session.HostID)
	assert.NotEmpty(t, host.ID)
	assert.Equal(t, tierlist.PhaseSetup, session.Phase)

	_, _, err = svc.JoinRoom(ctx, session.Code, "ANA", "")
	require.ErrorIs(t, err, tierlist.ErrDuplicateName)

	joined, budi, err := svc.JoinRoom(ctx, strings.ToLower(session.Code), "Budi", "")
	require.NoError(t, err)
	assert.Len(t, joined.Players, 2)

	again, same, err := svc.JoinRoom(ctx, session.Code, "ignored", budi.ID)
	require.NoError(t, err)
	assert.Equal(t, budi, same)
	assert.Len(t, again.Players, 2)
	assert.Equal(t, joined.Version, again.Version, "rejoining does not write")

	_, _, err = svc.JoinRoom(ctx, "QQQQ", "Citra", "")
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, _, err = svc.JoinRoom(ctx, "not-a-code", "Citra", "")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestJoinRoomFull(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	svc.maxPlayers = 2

	session, _, err := svc.CreateRoom(ctx, "Ana")
	require.NoError(t, err)
	_, _, err = svc.JoinRoom(ctx, session.Code, "Budi", "")
	require.NoError(t, err)

	_, _, err = svc.JoinRoom(ctx, session.Code, "Citra", "")
	require.ErrorIs(t, err, tierlist.ErrRoomFull)
}

func TestResume(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	session, host, err := svc.CreateRoom(ctx, "Ana")
	require.NoError(t, err)

	got, p, err := svc.Resume(ctx, Identity{PlayerID: host.ID, RoomCode: session.Code})
	require.NoError(t, err)
	assert.Equal(t, host, p)
	assert.Equal(t, session.Code, got.Code)

	_, _, err = svc.Resume(ctx, Identity{PlayerID: "stranger", RoomCode: session.Code})
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, _, err = svc.Resume(ctx, Identity{PlayerID: host.ID})
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestHostOnlyActions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	session, host, err := svc.CreateRoom(ctx, "Ana")
	require.NoError(t, err)
	_, budi, err := svc.JoinRoom(ctx, session.Code, "Budi", "")
	require.NoError(t, err)

	_, err = svc.Start(ctx, session.Code, budi.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.Kick(ctx, session.Code, budi.ID, host.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.Kick(ctx, session.Code, host.ID, host.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.Start(ctx, session.Code, host.ID)
	require.NoError(t, err)

	_, err = svc.SelectPack(ctx, session.Code, budi.ID, "mie-instan")
	require.ErrorIs(t, err, ErrNotAuthorized)

	after, err := svc.Kick(ctx, session.Code, host.ID, budi.ID)
	require.NoError(t, err)
	assert.False(t, after.HasPlayer(budi.ID))
}

func TestPlaceOnlyByJudge(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	session, players := startedRoom(t, svc)

	turn, err := session.Turn()
	require.NoError(t, err)
	// Seed 42 with three players starts at the second seat.
	require.Equal(t, players[1].ID, turn.Judge.ID)

	_, err = svc.Place(ctx, session.Code, players[0].ID, 0, tierlist.Gold)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.Place(ctx, session.Code, players[1].ID, 3, tierlist.Gold)
	require.ErrorIs(t, err, ErrStaleTurn)

	_, err = svc.Place(ctx, session.Code, players[1].ID, 0, tierlist.Tier("S"))
	require.ErrorIs(t, err, tierlist.ErrInvalidTier)

	after, err := svc.Place(ctx, session.Code, players[1].ID, 0, tierlist.Gold)
	require.NoError(t, err)
	assert.Equal(t, 1, after.TurnIndex)

	// The same drop delivered twice lands nowhere.
	_, err = svc.Place(ctx, session.Code, players[1].ID, 0, tierlist.Gold)
	require.ErrorIs(t, err, ErrStaleTurn)
}

func TestPlayThroughAndFinalize(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	session, players := startedRoom(t, svc)
	host := players[0]

	for session.Phase == tierlist.PhaseActive {
		turn, err := session.Turn()
		require.NoError(t, err)

		session, err = svc.Place(ctx, session.Code, turn.Judge.ID, session.TurnIndex, tierlist.Silver)
		require.NoError(t, err)
	}

	assert.Equal(t, tierlist.PhaseFinished, session.Phase)
	assert.Len(t, session.Composition, 6)
	assert.Equal(t, []string{"mie-instan"}, session.PlayedPackIDs)

	// Finishing happened with the last placement, so an explicit finalize
	// is a no-op and does not write.
	again, changed, err := svc.Finalize(ctx, session.Code, host.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, session.Version, again.Version)

	_, _, err = svc.Finalize(ctx, session.Code, players[1].ID)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.PlayAgain(ctx, session.Code, players[1].ID)
	require.ErrorIs(t, err, ErrNotAuthorized)

	next, err := svc.PlayAgain(ctx, session.Code, host.ID)
	require.NoError(t, err)
	assert.Equal(t, tierlist.PhasePackSelection, next.Phase)
	assert.Empty(t, next.Composition)
	assert.Zero(t, next.TurnIndex)
	assert.NotEqual(t, session.Seed, next.Seed)

	replay, err := svc.SelectPack(ctx, session.Code, host.ID, "mie-instan")
	require.NoError(t, err)
	assert.Equal(t, tierlist.PhaseActive, replay.Phase)
	assert.Equal(t, []string{"mie-instan"}, replay.PlayedPackIDs)
}

func TestFinalizeRepairsCompleteActiveRoom(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	session, players := startedRoom(t, svc)

	// Simulate a record that holds every placement but was never finished.
	pack, _ := session.Pack()
	_, err := svc.Store().Update(ctx, session.Code, func(s tierlist.Session) (tierlist.Session, error) {
		for _, item := range pack.Items {
			s.Composition = append(s.Composition, tierlist.PlacedItem{Item: item, PlacedBy: players[0].ID, Tier: tierlist.Gold})
		}
		s.TurnIndex = len(pack.Items)
		return s, nil
	})
	require.NoError(t, err)

	done, changed, err := svc.Finalize(ctx, session.Code, players[0].ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, tierlist.PhaseFinished, done.Phase)

	_, changed, err = svc.Finalize(ctx, session.Code, players[0].ID)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestLeave(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	session, players := startedRoom(t, svc)

	require.NoError(t, svc.Leave(ctx, session.Code, players[2].ID))
	after, err := svc.Snapshot(ctx, session.Code)
	require.NoError(t, err)
	assert.Len(t, after.Players, 2)

	require.NoError(t, svc.Leave(ctx, session.Code, players[2].ID), "leaving twice is harmless")

	require.NoError(t, svc.Leave(ctx, session.Code, players[0].ID))
	_, err = svc.Snapshot(ctx, session.Code)
	require.ErrorIs(t, err, ErrSessionNotFound, "host leaving closes the room")
}
