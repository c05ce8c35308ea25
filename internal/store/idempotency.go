package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (s *Store) GetIdempotencyRecord(ctx context.Context, scope, key string) (map[string]any, bool, error) {
	var raw []byte
	err := s.DB.QueryRow(ctx, `SELECT response_body FROM idempotency_keys WHERE scope=$1 AND idempotency_key=$2`,
		scope, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (s *Store) SaveIdempotencyRecord(ctx context.Context, scope, key string, body map[string]any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `INSERT INTO idempotency_keys(scope,idempotency_key,response_body)
VALUES($1,$2,$3) ON CONFLICT (scope,idempotency_key) DO NOTHING`, scope, key, raw)
	return err
}
