package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/certquest/arena-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const packageSelect = `SELECT p.id, p.titulo, p.descricao, p.preco, p.preco_desconto, p.percentual_desconto,
	       p.is_subscription, p.duracao_dias, p.categoria, p.ativo, p.created_at, p.updated_at,
	       COALESCE(array_agg(ps.simulado_id) FILTER (WHERE ps.simulado_id IS NOT NULL), '{}')
	FROM pacotes p
	LEFT JOIN pacote_simulados ps ON ps.pacote_id = p.id`

func scanPackage(row pgx.Row, p *model.Package) error {
	return row.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.DiscountedPrice, &p.DiscountPercentage,
		&p.IsSubscription, &p.DurationDays, &p.Category, &p.Active, &p.CreatedAt, &p.UpdatedAt, &p.ExamIDs)
}

// PackageRepository handles package ("pacote") data access.
type PackageRepository struct {
	pool *pgxpool.Pool
}

// NewPackageRepository creates a new PackageRepository.
func NewPackageRepository(pool *pgxpool.Pool) *PackageRepository {
	return &PackageRepository{pool: pool}
}

// GetByID retrieves a package with its member exam ids.
func (r *PackageRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Package, error) {
	p := &model.Package{}
	row := r.pool.QueryRow(ctx, packageSelect+` WHERE p.id = $1 GROUP BY p.id`, id)
	if err := scanPackage(row, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns a page of packages, newest first, and the total.
func (r *PackageRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]model.Package, int, error) {
	where := ``
	if activeOnly {
		where = ` WHERE p.ativo = TRUE`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pacotes p`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		packageSelect+where+` GROUP BY p.id ORDER BY p.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	packages := []model.Package{}
	for rows.Next() {
		var p model.Package
		if err := scanPackage(rows, &p); err != nil {
			return nil, 0, err
		}
		packages = append(packages, p)
	}
	return packages, total, rows.Err()
}

// Create inserts a package and its exam links in one transaction.
func (r *PackageRepository) Create(ctx context.Context, p *model.Package) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertPackage(ctx, tx, p); err != nil {
			return err
		}
		return linkExams(ctx, tx, p.ID, p.ExamIDs)
	})
}

// Update writes the package row and replaces its links: the old links are
// deleted and the new set inserted in the same transaction.
func (r *PackageRepository) Update(ctx context.Context, p *model.Package) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE pacotes SET titulo = $2, descricao = $3, preco = $4, preco_desconto = $5,
			        percentual_desconto = $6, is_subscription = $7, duracao_dias = $8,
			        categoria = $9, ativo = $10, updated_at = NOW()
			 WHERE id = $1
			 RETURNING created_at, updated_at`,
			p.ID, p.Title, p.Description, p.Price, p.DiscountedPrice,
			p.DiscountPercentage, p.IsSubscription, p.DurationDays,
			p.Category, p.Active,
		).Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM pacote_simulados WHERE pacote_id = $1`, p.ID); err != nil {
			return fmt.Errorf("clear links: %w", err)
		}
		return linkExams(ctx, tx, p.ID, p.ExamIDs)
	})
}

// Delete removes a package; its links cascade.
func (r *PackageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM pacotes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// WithinTx runs fn with a PackageTx bound to one database transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (r *PackageRepository) WithinTx(ctx context.Context, fn func(tx *PackageTx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&PackageTx{tx: tx})
	})
}

// PackageTx exposes the statements the auto-bundler needs inside one
// transaction.
type PackageTx struct {
	tx pgx.Tx
}

func (t *PackageTx) ListPaidTitleGroups(ctx context.Context, byCategory bool) ([]model.TitleGroup, error) {
	return listPaidTitleGroups(ctx, t.tx, byCategory)
}

// FindPackage returns the oldest package titled title. With byCategory the
// category must match exactly, the empty category included.
func (t *PackageTx) FindPackage(ctx context.Context, title, category string, byCategory bool) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx,
		`SELECT id FROM pacotes
		 WHERE titulo = $1 AND (NOT $3 OR categoria = $2)
		 ORDER BY created_at, id LIMIT 1`, title, category, byCategory).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func (t *PackageTx) TouchPackage(ctx context.Context, id uuid.UUID) error {
	_, err := t.tx.Exec(ctx, `UPDATE pacotes SET updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (t *PackageTx) ClearPackageExams(ctx context.Context, id uuid.UUID) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM pacote_simulados WHERE pacote_id = $1`, id)
	return err
}

func (t *PackageTx) CreatePackage(ctx context.Context, p *model.Package) error {
	return insertPackage(ctx, t.tx, p)
}

// LinkExam inserts one link and reports whether a row was written.
func (t *PackageTx) LinkExam(ctx context.Context, packageID, examID uuid.UUID) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`INSERT INTO pacote_simulados (pacote_id, simulado_id) VALUES ($1, $2)
		 ON CONFLICT (pacote_id, simulado_id) DO NOTHING`, packageID, examID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func insertPackage(ctx context.Context, q querier, p *model.Package) error {
	return q.QueryRow(ctx,
		`INSERT INTO pacotes (titulo, descricao, preco, preco_desconto, percentual_desconto,
		        is_subscription, duracao_dias, categoria, ativo)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		p.Title, p.Description, p.Price, p.DiscountedPrice, p.DiscountPercentage,
		p.IsSubscription, p.DurationDays, p.Category, p.Active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func linkExams(ctx context.Context, q querier, packageID uuid.UUID, examIDs []uuid.UUID) error {
	if len(examIDs) == 0 {
		return nil
	}
	_, err := q.Exec(ctx,
		`INSERT INTO pacote_simulados (pacote_id, simulado_id)
		 SELECT $1, u.simulado_id FROM UNNEST($2::uuid[]) AS u (simulado_id)
		 ON CONFLICT (pacote_id, simulado_id) DO NOTHING`, packageID, examIDs)
	if err != nil {
		return fmt.Errorf("link exams: %w", err)
	}
	return nil
}
