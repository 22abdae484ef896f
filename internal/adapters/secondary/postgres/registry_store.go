package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"model-version-registry/internal/core/domain"
	ports "model-version-registry/internal/core/ports/output"
)

const uniqueViolation = "23505"

type registryStore struct {
	pool *pgxpool.Pool
}

func NewRegistryStore(pool *pgxpool.Pool) ports.RegistryStore {
	return &registryStore{pool: pool}
}

func (r *registryStore) CreateModel(ctx context.Context, model *domain.RegisteredModel, fn ports.MutateFunc) (*domain.VersionSet, error) {
	labelsJSON, err := json.Marshal(model.Labels)
	if err != nil {
		return nil, fmt.Errorf("marshal labels: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `
		INSERT INTO registered_model
			(model_id, resource_name, display_name, labels, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`
	_, err = tx.Exec(ctx, query,
		model.ModelID, model.ResourceName, model.DisplayName,
		labelsJSON, model.CreatedAt, model.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrModelIDConflict
		}
		return nil, fmt.Errorf("create registered model: %w", err)
	}

	set := domain.NewVersionSet(model).Clone()
	before := set.Clone()
	if fn != nil {
		if err := fn(set); err != nil {
			return nil, err
		}
	}
	if err := persistVersions(ctx, tx, before, set); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create model: %w", err)
	}
	return set, nil
}

func (r *registryStore) Update(ctx context.Context, modelID string, fn ports.MutateFunc) (*domain.VersionSet, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Row lock serialises writers of the same model across server replicas.
	set, err := loadVersionSet(ctx, tx, modelID, true)
	if err != nil {
		return nil, err
	}

	before := set.Clone()
	if err := fn(set); err != nil {
		return nil, err
	}
	if err := persistVersions(ctx, tx, before, set); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `UPDATE registered_model SET updated_at=$1 WHERE model_id=$2`, set.Model.UpdatedAt, modelID)
	if err != nil {
		return nil, fmt.Errorf("touch registered model: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update model: %w", err)
	}
	return set, nil
}

func (r *registryStore) Get(ctx context.Context, modelID string) (*domain.VersionSet, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	return loadVersionSet(ctx, tx, modelID, false)
}

func (r *registryStore) List(ctx context.Context, filter ports.ListFilter) ([]*domain.RegisteredModel, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registered_model`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count registered models: %w", err)
	}

	query := `
		SELECT rm.model_id, rm.resource_name, rm.display_name, rm.labels,
			   rm.created_at, rm.updated_at,
			   (SELECT COUNT(*) FROM model_version mv WHERE mv.model_id = rm.model_id) AS version_count,
			   COALESCE((SELECT mv.version_id::text FROM model_version mv
						 WHERE mv.model_id = rm.model_id AND mv.is_default), '') AS default_version_id
		FROM registered_model rm
		ORDER BY rm.created_at, rm.model_id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list registered models: %w", err)
	}
	defer rows.Close()

	models := []*domain.RegisteredModel{}
	for rows.Next() {
		m := &domain.RegisteredModel{}
		var labelsJSON []byte
		if err := rows.Scan(
			&m.ModelID, &m.ResourceName, &m.DisplayName, &labelsJSON,
			&m.CreatedAt, &m.UpdatedAt, &m.VersionCount, &m.DefaultVersionID,
		); err != nil {
			return nil, 0, fmt.Errorf("scan registered model row: %w", err)
		}
		if err := unmarshalLabels(labelsJSON, &m.Labels); err != nil {
			return nil, 0, err
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate registered model rows: %w", err)
	}

	return models, total, nil
}

func loadVersionSet(ctx context.Context, tx pgx.Tx, modelID string, forUpdate bool) (*domain.VersionSet, error) {
	query := `
		SELECT model_id, resource_name, display_name, labels, created_at, updated_at
		FROM registered_model
		WHERE model_id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	m := &domain.RegisteredModel{}
	var labelsJSON []byte
	err := tx.QueryRow(ctx, query, modelID).Scan(
		&m.ModelID, &m.ResourceName, &m.DisplayName, &labelsJSON, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrModelNotFound
		}
		return nil, fmt.Errorf("get registered model: %w", err)
	}
	if err := unmarshalLabels(labelsJSON, &m.Labels); err != nil {
		return nil, err
	}

	set := domain.NewVersionSet(m)

	rows, err := tx.Query(ctx, `
		SELECT version_id, description, is_default, artifact_uri, model_framework,
			   labels, created_at, updated_at
		FROM model_version
		WHERE model_id = $1
		ORDER BY version_id
	`, modelID)
	if err != nil {
		return nil, fmt.Errorf("list model versions: %w", err)
	}
	defer rows.Close()

	byID := make(map[int]*domain.ModelVersion)
	for rows.Next() {
		v := &domain.ModelVersion{ModelID: modelID, Aliases: []string{}}
		var versionID int
		var versionLabels []byte
		if err := rows.Scan(
			&versionID, &v.Description, &v.IsDefault, &v.ArtifactURI, &v.ModelFramework,
			&versionLabels, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan model version row: %w", err)
		}
		if err := unmarshalLabels(versionLabels, &v.Labels); err != nil {
			return nil, err
		}
		v.VersionID = strconv.Itoa(versionID)
		byID[versionID] = v
		set.Versions = append(set.Versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model version rows: %w", err)
	}
	rows.Close()

	aliasRows, err := tx.Query(ctx, `
		SELECT alias, version_id
		FROM model_version_alias
		WHERE model_id = $1
		ORDER BY version_id, position
	`, modelID)
	if err != nil {
		return nil, fmt.Errorf("list model version aliases: %w", err)
	}
	defer aliasRows.Close()

	for aliasRows.Next() {
		var alias string
		var versionID int
		if err := aliasRows.Scan(&alias, &versionID); err != nil {
			return nil, fmt.Errorf("scan alias row: %w", err)
		}
		if v, ok := byID[versionID]; ok {
			v.Aliases = append(v.Aliases, alias)
		}
	}
	if err := aliasRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alias rows: %w", err)
	}

	return set, nil
}

// persistVersions writes the difference between before and after. Versions
// losing the default flag are written first so the single-default index holds
// at every statement.
func persistVersions(ctx context.Context, tx pgx.Tx, before, after *domain.VersionSet) error {
	existing := make(map[string]*domain.ModelVersion, len(before.Versions))
	for _, v := range before.Versions {
		existing[v.VersionID] = v
	}

	ordered := append([]*domain.ModelVersion{}, after.Versions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return !ordered[i].IsDefault && ordered[j].IsDefault
	})

	for _, v := range ordered {
		prev, ok := existing[v.VersionID]
		switch {
		case !ok:
			if err := insertVersion(ctx, tx, v); err != nil {
				return err
			}
		case prev.IsDefault != v.IsDefault || prev.Description != v.Description || !prev.UpdatedAt.Equal(v.UpdatedAt):
			_, err := tx.Exec(ctx, `
				UPDATE model_version
				SET description=$1, is_default=$2, updated_at=$3
				WHERE model_id=$4 AND version_id=$5
			`, v.Description, v.IsDefault, v.UpdatedAt, v.ModelID, v.Number())
			if err != nil {
				return fmt.Errorf("update model version: %w", err)
			}
		}
	}

	// Aliases move between versions, so the model's alias rows are rewritten.
	if _, err := tx.Exec(ctx, `DELETE FROM model_version_alias WHERE model_id=$1`, after.Model.ModelID); err != nil {
		return fmt.Errorf("clear aliases: %w", err)
	}
	for _, v := range after.Versions {
		for pos, alias := range v.Aliases {
			_, err := tx.Exec(ctx, `
				INSERT INTO model_version_alias (model_id, alias, version_id, position)
				VALUES ($1,$2,$3,$4)
			`, v.ModelID, alias, v.Number(), pos)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: %q", domain.ErrAliasConflict, alias)
				}
				return fmt.Errorf("insert alias: %w", err)
			}
		}
	}
	return nil
}

func insertVersion(ctx context.Context, tx pgx.Tx, v *domain.ModelVersion) error {
	labelsJSON, err := json.Marshal(v.Labels)
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}

	query := `
		INSERT INTO model_version
			(model_id, version_id, description, is_default, artifact_uri,
			 model_framework, labels, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`
	_, err = tx.Exec(ctx, query,
		v.ModelID, v.Number(), v.Description, v.IsDefault, v.ArtifactURI,
		v.ModelFramework, labelsJSON, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create model version: %w", err)
	}
	return nil
}

func unmarshalLabels(raw []byte, dst *map[string]string) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("unmarshal labels: %w", err)
		}
	}
	if *dst == nil {
		*dst = make(map[string]string)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
