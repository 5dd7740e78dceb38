package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/shipyard/internal/game/combat"
)

// BattleRepository stores battle results.
type BattleRepository struct {
	pool *pgxpool.Pool
}

// NewBattleRepository creates a new BattleRepository.
func NewBattleRepository(pool *pgxpool.Pool) *BattleRepository {
	return &BattleRepository{pool: pool}
}

// BattleRow is a stored battle with its ships in slot order.
type BattleRow struct {
	ID        int64
	Scenario  string
	Result    combat.Result
	CreatedAt time.Time
}

// Save stores a result and its ships in one transaction and returns the battle id.
func (r *BattleRepository) Save(ctx context.Context, scenario string, res combat.Result) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO battles (scenario, seed, ticks, winner)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		scenario, int64(res.Seed), res.Ticks, res.Winner,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert battle: %w", err)
	}

	if len(res.Ships) > 0 {
		rows := make([][]any, 0, len(res.Ships))
		for i, s := range res.Ships {
			rows = append(rows, []any{id, i, s.Name, s.Team, s.Alive, s.Derelict, s.HP, s.MaxHP})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"battle_ships"},
			[]string{"battle_id", "slot", "name", "team", "alive", "derelict", "hp", "max_hp"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting ships for battle %d: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit battle %d: %w", id, err)
	}
	slog.Debug("saved battle", "id", id, "scenario", scenario, "seed", res.Seed, "winner", res.Winner)
	return id, nil
}

// Get loads a battle by id. Returns nil, nil if it does not exist.
func (r *BattleRepository) Get(ctx context.Context, id int64) (*BattleRow, error) {
	row := BattleRow{ID: id}
	var seed int64
	err := r.pool.QueryRow(ctx,
		`SELECT scenario, seed, ticks, winner, created_at FROM battles WHERE id = $1`, id,
	).Scan(&row.Scenario, &seed, &row.Result.Ticks, &row.Result.Winner, &row.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying battle %d: %w", id, err)
	}
	row.Result.Seed = uint64(seed)

	rows, err := r.pool.Query(ctx,
		`SELECT name, team, alive, derelict, hp, max_hp
		 FROM battle_ships WHERE battle_id = $1 ORDER BY slot`, id)
	if err != nil {
		return nil, fmt.Errorf("query ships of battle %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s combat.ShipResult
		if err := rows.Scan(&s.Name, &s.Team, &s.Alive, &s.Derelict, &s.HP, &s.MaxHP); err != nil {
			return nil, fmt.Errorf("scan battle ship: %w", err)
		}
		row.Result.Ships = append(row.Result.Ships, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating battle ships: %w", err)
	}
	return &row, nil
}

// WinCounts returns, per winning team, how many battles of a scenario it won. Draws are
// counted under -1.
func (r *BattleRepository) WinCounts(ctx context.Context, scenario string) (map[int]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT winner, COUNT(*) FROM battles WHERE scenario = $1 GROUP BY winner`, scenario)
	if err != nil {
		return nil, fmt.Errorf("query win counts: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var winner, n int
		if err := rows.Scan(&winner, &n); err != nil {
			return nil, fmt.Errorf("scan win count: %w", err)
		}
		out[winner] = n
	}
	return out, rows.Err()
}

// DeleteScenario removes every battle of a scenario and returns how many were deleted.
func (r *BattleRepository) DeleteScenario(ctx context.Context, scenario string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM battles WHERE scenario = $1`, scenario)
	if err != nil {
		return 0, fmt.Errorf("deleting scenario %q: %w", scenario, err)
	}
	return tag.RowsAffected(), nil
}
