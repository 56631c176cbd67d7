package modelstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/liamcoop/chargecast/inference"
)

// Source kinds accepted by OpenSource.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// FileSource loads an artifact from a JSON file.
type FileSource struct {
	Path string
}

func (s FileSource) Load(_ context.Context) (inference.Model, inference.ModelInfo, error) {
	a, err := LoadArtifactFile(s.Path)
	if err != nil {
		return nil, inference.ModelInfo{}, err
	}
	return a, a.Info(), nil
}

// StoreSource loads the active version of Name from an ArtifactStore.
type StoreSource struct {
	Store ArtifactStore
	Name  string
}

func (s StoreSource) Load(ctx context.Context) (inference.Model, inference.ModelInfo, error) {
	if s.Store == nil {
		return nil, inference.ModelInfo{}, fmt.Errorf("artifact store is nil")
	}
	a, err := s.Store.GetActive(ctx, s.Name)
	if err != nil {
		return nil, inference.ModelInfo{}, err
	}
	return a, a.Info(), nil
}

// OpenSource builds the model source named by kind. The returned close
// function releases any database handle and is never nil.
func OpenSource(ctx context.Context, kind, path, databaseURL, name string) (inference.ModelSource, func() error, error) {
	noop := func() error { return nil }

	switch kind {
	case SourceFile, "":
		return FileSource{Path: path}, noop, nil

	case SourcePostgres:
		db, err := OpenDB(ctx, databaseURL)
		if err != nil {
			return nil, noop, err
		}
		return StoreSource{Store: NewPostgresArtifactStore(db), Name: name}, db.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown model source %q (use: file, postgres)", kind)
}

// OpenDB opens and pings a PostgreSQL connection.
func OpenDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
