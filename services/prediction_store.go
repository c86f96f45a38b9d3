package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"football-trends/analysis"
)

// PredictionStore keeps a history of published predictions in Postgres.
type PredictionStore struct {
	db *sql.DB
}

func NewPredictionStore(db *sql.DB) *PredictionStore {
	return &PredictionStore{db: db}
}

// Publish implements PredictionSink.
func (s *PredictionStore) Publish(ctx context.Context, ev PredictionEvent) error {
	_, err := s.Save(ctx, ev)
	return err
}

// Save inserts the event and returns its id.
func (s *PredictionStore) Save(ctx context.Context, ev PredictionEvent) (int64, error) {
	homeFeatures, err := json.Marshal(ev.HomeFeatures)
	if err != nil {
		return 0, fmt.Errorf("encoding home features: %w", err)
	}
	awayFeatures, err := json.Marshal(ev.AwayFeatures)
	if err != nil {
		return 0, fmt.Errorf("encoding away features: %w", err)
	}

	query := `
		INSERT INTO predictions (
			kind, fixture_id, league_id, season,
			home_team_id, home_team_name, away_team_id, away_team_name,
			home_score, away_score, home_probability, away_probability,
			is_draw, winner, home_features, away_features, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`

	var id int64
	err = s.db.QueryRowContext(ctx, query,
		ev.Kind, nullInt(ev.FixtureID), ev.League, ev.Season,
		ev.Home.ID, ev.Home.Name, ev.Away.ID, ev.Away.Name,
		ev.HomeScore, ev.AwayScore, ev.Prediction.HomeProbability, ev.Prediction.AwayProbability,
		ev.Prediction.IsDraw, nullString(string(ev.Prediction.Winner)), homeFeatures, awayFeatures, ev.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("saving prediction: %w", err)
	}
	return id, nil
}

// Recent lists stored predictions, newest first. team filters on either side when positive.
func (s *PredictionStore) Recent(ctx context.Context, limit, offset, team int) ([]PredictionEvent, error) {
	query := `
		SELECT id, kind, fixture_id, league_id, season,
		       home_team_id, home_team_name, away_team_id, away_team_name,
		       home_score, away_score, home_probability, away_probability,
		       is_draw, winner, home_features, away_features, created_at
		FROM predictions
		WHERE ($1 = 0 OR home_team_id = $1 OR away_team_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, team, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying predictions: %w", err)
	}
	defer rows.Close()

	events := []PredictionEvent{}
	for rows.Next() {
		var (
			ev           PredictionEvent
			fixtureID    sql.NullInt64
			winner       sql.NullString
			homeFeatures []byte
			awayFeatures []byte
		)
		if err := rows.Scan(
			&ev.ID, &ev.Kind, &fixtureID, &ev.League, &ev.Season,
			&ev.Home.ID, &ev.Home.Name, &ev.Away.ID, &ev.Away.Name,
			&ev.HomeScore, &ev.AwayScore, &ev.Prediction.HomeProbability, &ev.Prediction.AwayProbability,
			&ev.Prediction.IsDraw, &winner, &homeFeatures, &awayFeatures, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning prediction row: %w", err)
		}
		ev.FixtureID = int(fixtureID.Int64)
		ev.Prediction.Winner = analysis.Side(winner.String)
		if err := json.Unmarshal(homeFeatures, &ev.HomeFeatures); err != nil {
			return nil, fmt.Errorf("decoding home features of prediction %d: %w", ev.ID, err)
		}
		if err := json.Unmarshal(awayFeatures, &ev.AwayFeatures); err != nil {
			return nil, fmt.Errorf("decoding away features of prediction %d: %w", ev.ID, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prediction rows: %w", err)
	}
	return events, nil
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
