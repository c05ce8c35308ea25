package store

import (
	"context"
	"errors"

	"certia/pkg/domain"

	"github.com/jackc/pgx/v5"
)

type Object struct {
	Bucket      string
	Path        string
	ContentType string
	Bytes       []byte
}

func (s *Store) PutObject(ctx context.Context, obj Object) error {
	_, err := s.DB.Exec(ctx, `INSERT INTO objects(bucket,path,content_type,bytes)
VALUES($1,$2,$3,$4)
ON CONFLICT (bucket,path) DO UPDATE SET content_type=EXCLUDED.content_type, bytes=EXCLUDED.bytes`,
		obj.Bucket, obj.Path, obj.ContentType, obj.Bytes)
	return err
}

func (s *Store) GetObject(ctx context.Context, bucket, path string) (Object, error) {
	obj := Object{Bucket: bucket, Path: path}
	err := s.DB.QueryRow(ctx, `SELECT content_type,bytes FROM objects WHERE bucket=$1 AND path=$2`, bucket, path).
		Scan(&obj.ContentType, &obj.Bytes)
	if errors.Is(err, pgx.ErrNoRows) {
		return obj, domain.NotFoundf("object %s/%s", bucket, path)
	}
	return obj, err
}

func (s *Store) RemoveObjects(ctx context.Context, bucket string, paths []string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM objects WHERE bucket=$1 AND path=ANY($2)`, bucket, paths)
	return err
}
