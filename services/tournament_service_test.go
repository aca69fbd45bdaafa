package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-hub/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTournamentService_Join(t *testing.T) {
	ctx := context.Background()

	t.Run("debits entry fee and fills a slot", func(t *testing.T) {
		env := newTestEnv()
		userID := env.seedUser(decimal.NewFromInt(500))
		tournamentID := env.seedTournament(decimal.NewFromInt(200), 10)

		participant, err := env.tournament.Join(ctx, userID, tournamentID)

		require.NoError(t, err)
		require.NotNil(t, participant)
		assert.Equal(t, userID, participant.UserID)
		assert.Equal(t, tournamentID, participant.TournamentID)
		assert.True(t, participant.IsPaid)

		assert.True(t, env.balance(userID).Equal(decimal.NewFromInt(300)),
			"balance should drop by the entry fee, got %s", env.balance(userID))

		tournament, err := env.tournament.GetByID(ctx, tournamentID)
		require.NoError(t, err)
		assert.Equal(t, 1, tournament.FilledSlots)

		transactions, err := env.wallet.ListTransactions(ctx, userID, 10, 0)
		require.NoError(t, err)
		require.Len(t, transactions, 1)
		assert.Equal(t, models.TypeTournamentEntry, transactions[0].Type)
		assert.Equal(t, models.StatusCompleted, transactions[0].Status)
		assert.True(t, transactions[0].Amount.Equal(decimal.NewFromInt(-200)))

		require.Len(t, env.notifier.slotEvents, 1)
		assert.Equal(t, slotEvent{tournamentID, 1, 10}, env.notifier.slotEvents[0])
	})

	t.Run("free tournament records a zero-amount entry", func(t *testing.T) {
		env := newTestEnv()
		userID := env.seedUser(decimal.Zero)
		tournamentID := env.seedTournament(decimal.Zero, 10)

		_, err := env.tournament.Join(ctx, userID, tournamentID)

		require.NoError(t, err)
		assert.True(t, env.balance(userID).IsZero())

		transactions, err := env.wallet.ListTransactions(ctx, userID, 10, 0)
		require.NoError(t, err)
		require.Len(t, transactions, 1)
		assert.True(t, transactions[0].Amount.IsZero())
		assert.Equal(t, models.StatusCompleted, transactions[0].Status)
	})

	t.Run("full tournament leaves no trace", func(t *testing.T) {
		env := newTestEnv()
		first := env.seedUser(decimal.NewFromInt(500))
		second := env.seedUser(decimal.NewFromInt(500))
		tournamentID := env.seedTournament(decimal.NewFromInt(100), 1)

		_, err := env.tournament.Join(ctx, first, tournamentID)
		require.NoError(t, err)

		_, err = env.tournament.Join(ctx, second, tournamentID)

		assert.ErrorIs(t, err, ErrTournamentFull)
		assert.True(t, env.balance(second).Equal(decimal.NewFromInt(500)),
			"rejected join must not touch the balance")
		assert.Equal(t, 0, env.transactionCount(second))

		participants, err := env.tournament.ListParticipants(ctx, tournamentID)
		require.NoError(t, err)
		assert.Len(t, participants, 1)
	})

	t.Run("duplicate registration is rejected", func(t *testing.T) {
		env := newTestEnv()
		userID := env.seedUser(decimal.NewFromInt(500))
		tournamentID := env.seedTournament(decimal.NewFromInt(100), 10)

		_, err := env.tournament.Join(ctx, userID, tournamentID)
		require.NoError(t, err)

		_, err = env.tournament.Join(ctx, userID, tournamentID)

		assert.ErrorIs(t, err, ErrAlreadyRegistered)
		assert.True(t, env.balance(userID).Equal(decimal.NewFromInt(400)),
			"the fee must be charged exactly once")
	})

	t.Run("insufficient balance is rejected before any write", func(t *testing.T) {
		env := newTestEnv()
		userID := env.seedUser(decimal.NewFromInt(50))
		tournamentID := env.seedTournament(decimal.NewFromInt(100), 10)

		_, err := env.tournament.Join(ctx, userID, tournamentID)

		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.True(t, env.balance(userID).Equal(decimal.NewFromInt(50)))
		assert.Equal(t, 0, env.transactionCount(userID))

		tournament, err := env.tournament.GetByID(ctx, tournamentID)
		require.NoError(t, err)
		assert.Equal(t, 0, tournament.FilledSlots)
	})

	t.Run("unknown tournament", func(t *testing.T) {
		env := newTestEnv()
		userID := env.seedUser(decimal.NewFromInt(500))

		_, err := env.tournament.Join(ctx, userID, 9999)

		assert.ErrorIs(t, err, ErrTournamentNotFound)
	})

	t.Run("taking the last slot closes the tournament", func(t *testing.T) {
		env := newTestEnv()
		userID := env.seedUser(decimal.NewFromInt(500))
		other := env.seedUser(decimal.NewFromInt(500))
		tournamentID := env.seedTournament(decimal.NewFromInt(200), 10)

		env.store.mu.Lock()
		tournament := env.store.tournaments[tournamentID]
		tournament.FilledSlots = 9
		env.store.tournaments[tournamentID] = tournament
		env.store.mu.Unlock()

		_, err := env.tournament.Join(ctx, userID, tournamentID)

		require.NoError(t, err)
		assert.True(t, env.balance(userID).Equal(decimal.NewFromInt(300)))

		joined, err := env.tournament.GetByID(ctx, tournamentID)
		require.NoError(t, err)
		assert.Equal(t, 10, joined.FilledSlots)

		_, err = env.tournament.Join(ctx, other, tournamentID)
		assert.ErrorIs(t, err, ErrTournamentFull)
	})

	t.Run("concurrent joins cannot overbook the last slot", func(t *testing.T) {
		env := newTestEnv()
		tournamentID := env.seedTournament(decimal.NewFromInt(100), 1)

		const contenders = 8
		userIDs := make([]int, contenders)
		for i := range userIDs {
			userIDs[i] = env.seedUser(decimal.NewFromInt(500))
		}

		var wg sync.WaitGroup
		errs := make([]error, contenders)
		for i, userID := range userIDs {
			wg.Add(1)
			go func(i, userID int) {
				defer wg.Done()
				_, errs[i] = env.tournament.Join(ctx, userID, tournamentID)
			}(i, userID)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, ErrTournamentFull)
			}
		}
		assert.Equal(t, 1, succeeded, "exactly one contender may take the last slot")

		tournament, err := env.tournament.GetByID(ctx, tournamentID)
		require.NoError(t, err)
		assert.Equal(t, 1, tournament.FilledSlots)

		participants, err := env.tournament.ListParticipants(ctx, tournamentID)
		require.NoError(t, err)
		assert.Len(t, participants, 1)
	})
}

func TestTournamentService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an upcoming tournament", func(t *testing.T) {
		env := newTestEnv()

		tournament, err := env.tournament.Create(ctx, CreateTournamentInput{
			Title:     "Friday Night Squad",
			EntryFee:  decimal.NewFromInt(150),
			PrizePool: decimal.NewFromInt(1200),
			MaxSlots:  48,
			StartTime: futureTime(),
			Mode:      models.ModeSquad,
		})

		require.NoError(t, err)
		assert.NotZero(t, tournament.ID)
		assert.Equal(t, models.TournamentUpcoming, tournament.Status)
		assert.Equal(t, 0, tournament.FilledSlots)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		env := newTestEnv()

		cases := map[string]CreateTournamentInput{
			"empty title":       {MaxSlots: 10, StartTime: futureTime(), Mode: models.ModeSolo},
			"zero slots":        {Title: "Cup", StartTime: futureTime(), Mode: models.ModeSolo},
			"bad mode":          {Title: "Cup", MaxSlots: 10, StartTime: futureTime(), Mode: "trio"},
			"negative fee":      {Title: "Cup", MaxSlots: 10, StartTime: futureTime(), Mode: models.ModeSolo, EntryFee: decimal.NewFromInt(-1)},
			"missing start":     {Title: "Cup", MaxSlots: 10, Mode: models.ModeSolo},
			"negative prize":    {Title: "Cup", MaxSlots: 10, StartTime: futureTime(), Mode: models.ModeSolo, PrizePool: decimal.NewFromInt(-5)},
		}
		for name, input := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := env.tournament.Create(ctx, input)
				assert.ErrorIs(t, err, ErrValidationFailed)
			})
		}
	})
}

func TestTournamentService_GetUpcoming(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	_, err := env.tournament.GetUpcoming(ctx)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	_ = env.seedTournament(decimal.NewFromInt(100), 10)
	soonID := env.seedTournament(decimal.NewFromInt(100), 10)

	// Pull the second tournament's start time ahead of the first one.
	env.store.mu.Lock()
	soon := env.store.tournaments[soonID]
	soon.StartTime = soon.StartTime.Add(-12 * time.Hour)
	env.store.tournaments[soonID] = soon
	env.store.mu.Unlock()

	upcoming, err := env.tournament.GetUpcoming(ctx)
	require.NoError(t, err)
	assert.Equal(t, soonID, upcoming.ID)
}
