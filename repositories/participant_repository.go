package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-hub/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound          = errors.New("participant not found")
	ErrParticipantConflict          = errors.New("user is already registered for this tournament")
	ErrParticipantUserInvalid       = errors.New("participant references an invalid user")
	ErrParticipantTournamentInvalid = errors.New("participant references an invalid tournament")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	Exists(ctx context.Context, exec SQLExecutor, userID, tournamentID int) (bool, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Participant, error)
	SetPosition(ctx context.Context, exec SQLExecutor, userID, tournamentID, position int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	query := `
		INSERT INTO tournament_participants (tournament_id, user_id, is_paid)
		VALUES ($1, $2, $3)
		RETURNING id, registered_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		p.TournamentID,
		p.UserID,
		p.IsPaid,
	).Scan(&p.ID, &p.RegisteredAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "tournament_participants_user_id_tournament_id_key" {
					return ErrParticipantConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "tournament_participants_user_id_fkey":
					return ErrParticipantUserInvalid
				case "tournament_participants_tournament_id_fkey":
					return ErrParticipantTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) Exists(ctx context.Context, exec SQLExecutor, userID, tournamentID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tournament_participants
			WHERE user_id = $1 AND tournament_id = $2
		)`

	var exists bool
	err := r.getExecutor(exec).QueryRowContext(ctx, query, userID, tournamentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check participant existence: %w", err)
	}
	return exists, nil
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Participant, error) {
	query := `
		SELECT id, tournament_id, user_id, registered_at, position, is_paid
		FROM tournament_participants
		WHERE tournament_id = $1
		ORDER BY registered_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.TournamentID, &p.UserID, &p.RegisteredAt, &p.Position, &p.IsPaid); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) SetPosition(ctx context.Context, exec SQLExecutor, userID, tournamentID, position int) error {
	query := `
		UPDATE tournament_participants
		SET position = $1
		WHERE user_id = $2 AND tournament_id = $3`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, position, userID, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to set participant position: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}
