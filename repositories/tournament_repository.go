package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/tournament-hub/models"
	"github.com/shopspring/decimal"
)

var (
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrTournamentSlotsFull = errors.New("tournament has no free slots")
)

type ListTournamentsFilter struct {
	Mode   *models.TournamentMode
	Status *models.TournamentStatus
	MinFee *decimal.Decimal
	MaxFee *decimal.Decimal
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	GetUpcoming(ctx context.Context, now time.Time) (*models.Tournament, error)
	// FillSlot increments filled_slots by one, but only while a free slot
	// remains. The check and the increment are a single conditional UPDATE so
	// concurrent joins cannot overbook the tournament.
	FillSlot(ctx context.Context, exec SQLExecutor, id int) (filledSlots, maxSlots int, err error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, title, description, entry_fee, prize_pool, max_slots, filled_slots,
	start_time, end_time, mode, status, banner_key, created_at`

func (r *postgresTournamentRepository) scanTournament(row interface {
	Scan(dest ...interface{}) error
}, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Title, &t.Description, &t.EntryFee, &t.PrizePool,
		&t.MaxSlots, &t.FilledSlots, &t.StartTime, &t.EndTime,
		&t.Mode, &t.Status, &t.BannerKey, &t.CreatedAt,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			title, description, entry_fee, prize_pool, max_slots,
			start_time, end_time, mode, status, banner_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, filled_slots, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		t.Title, t.Description, t.EntryFee, t.PrizePool, t.MaxSlots,
		t.StartTime, t.EndTime, t.Mode, t.Status, t.BannerKey,
	).Scan(&t.ID, &t.FilledSlots, &t.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	err := r.scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT` + tournamentColumns + ` FROM tournaments`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	addCondition := func(condition string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(condition, argCounter))
		args = append(args, value)
		argCounter++
	}

	if filter.Mode != nil {
		addCondition("mode = $%d", *filter.Mode)
	}
	if filter.Status != nil {
		addCondition("status = $%d", *filter.Status)
	}
	if filter.MinFee != nil {
		addCondition("entry_fee >= $%d", *filter.MinFee)
	}
	if filter.MaxFee != nil {
		addCondition("entry_fee <= $%d", *filter.MaxFee)
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY start_time ASC")

	if filter.Limit > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filter.Limit)
		argCounter++
	}
	if filter.Offset > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := r.scanTournament(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament rows: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) GetUpcoming(ctx context.Context, now time.Time) (*models.Tournament, error) {
	query := `
		SELECT` + tournamentColumns + `
		FROM tournaments
		WHERE status = $1 AND start_time >= $2
		ORDER BY start_time ASC
		LIMIT 1`

	t := &models.Tournament{}
	err := r.scanTournament(r.db.QueryRowContext(ctx, query, models.TournamentUpcoming, now), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get upcoming tournament: %w", err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) FillSlot(ctx context.Context, exec SQLExecutor, id int) (int, int, error) {
	query := `
		UPDATE tournaments
		SET filled_slots = filled_slots + 1
		WHERE id = $1 AND filled_slots < max_slots
		RETURNING filled_slots, max_slots`

	executor := r.getExecutor(exec)
	var filled, max int
	err := executor.QueryRowContext(ctx, query, id).Scan(&filled, &max)
	if err == nil {
		return filled, max, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("failed to fill tournament slot: %w", err)
	}

	var exists bool
	checkErr := executor.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tournaments WHERE id = $1)`, id).Scan(&exists)
	if checkErr != nil {
		return 0, 0, fmt.Errorf("failed to check tournament existence: %w", checkErr)
	}
	if !exists {
		return 0, 0, ErrTournamentNotFound
	}
	return 0, 0, ErrTournamentSlotsFull
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error {
	query := `UPDATE tournaments SET banner_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, bannerKey, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament banner key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
