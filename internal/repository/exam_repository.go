package repository

import (
	"context"
	"fmt"

	"github.com/certquest/arena-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const examColumns = `id, titulo, descricao, duracao_minutos, nivel_dificuldade, ativo,
	preco, preco_desconto, percentual_desconto, desconto_expira_em,
	numero_questoes, nota_minima, categoria, is_gratis, language, created_at, updated_at`

func scanExam(row pgx.Row, e *model.Exam) error {
	return row.Scan(&e.ID, &e.Title, &e.Description, &e.DurationMinutes, &e.Difficulty, &e.Active,
		&e.Price, &e.DiscountedPrice, &e.DiscountPercentage, &e.DiscountExpiresAt,
		&e.QuestionCount, &e.PassingScore, &e.Category, &e.IsFree, &e.Language, &e.CreatedAt, &e.UpdatedAt)
}

func collectExams(rows pgx.Rows) ([]model.Exam, error) {
	defer rows.Close()

	exams := []model.Exam{}
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ExamFilter narrows an exam listing.
type ExamFilter struct {
	ActiveOnly bool
	Category   string
	Language   string
	Limit      int
	Offset     int
}

// ExamRepository handles exam ("simulado") data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	row := r.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM simulados WHERE id = $1`, id)
	if err := scanExam(row, e); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns a page of exams matching f and the total number of matches.
func (r *ExamRepository) List(ctx context.Context, f ExamFilter) ([]model.Exam, int, error) {
	where := ` WHERE TRUE`
	var args []any
	if f.ActiveOnly {
		where += ` AND ativo = TRUE`
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(` AND categoria = $%d`, len(args))
	}
	if f.Language != "" {
		args = append(args, f.Language)
		where += fmt.Sprintf(` AND language = $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM simulados`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + examColumns + ` FROM simulados` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	exams, err := collectExams(rows)
	return exams, total, err
}

// ListByIDs returns the exams with the given ids, ordered by title.
func (r *ExamRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Exam, error) {
	if len(ids) == 0 {
		return []model.Exam{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM simulados WHERE id = ANY($1) ORDER BY titulo, created_at`, ids)
	if err != nil {
		return nil, err
	}
	return collectExams(rows)
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO simulados (titulo, descricao, duracao_minutos, nivel_dificuldade, ativo,
		        preco, preco_desconto, percentual_desconto, desconto_expira_em,
		        nota_minima, categoria, is_gratis, language)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, numero_questoes, created_at, updated_at`,
		e.Title, e.Description, e.DurationMinutes, e.Difficulty, e.Active,
		e.Price, e.DiscountedPrice, e.DiscountPercentage, e.DiscountExpiresAt,
		e.PassingScore, e.Category, e.IsFree, e.Language,
	).Scan(&e.ID, &e.QuestionCount, &e.CreatedAt, &e.UpdatedAt)
}

// Update writes every editable column of e.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`UPDATE simulados SET titulo = $2, descricao = $3, duracao_minutos = $4, nivel_dificuldade = $5,
		        ativo = $6, preco = $7, preco_desconto = $8, percentual_desconto = $9,
		        desconto_expira_em = $10, nota_minima = $11, categoria = $12, is_gratis = $13,
		        language = $14, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		e.ID, e.Title, e.Description, e.DurationMinutes, e.Difficulty,
		e.Active, e.Price, e.DiscountedPrice, e.DiscountPercentage,
		e.DiscountExpiresAt, e.PassingScore, e.Category, e.IsFree, e.Language,
	).Scan(&e.UpdatedAt)
}

// Delete removes an exam. Questions, options, results and package links
// cascade.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM simulados WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListPaidTitleGroups returns paid exams grouped by exact title, or by
// (title, category) when byCategory is set. Groups keep every member; the
// caller decides which sizes to bundle.
func (r *ExamRepository) ListPaidTitleGroups(ctx context.Context, byCategory bool) ([]model.TitleGroup, error) {
	return listPaidTitleGroups(ctx, r.pool, byCategory)
}

func listPaidTitleGroups(ctx context.Context, q querier, byCategory bool) ([]model.TitleGroup, error) {
	category := `''::text`
	if byCategory {
		category = `categoria`
	}
	rows, err := q.Query(ctx,
		`SELECT titulo, `+category+` AS grupo_categoria, array_agg(id ORDER BY created_at, id)
		 FROM simulados
		 WHERE is_gratis = FALSE
		 GROUP BY titulo, grupo_categoria
		 ORDER BY titulo, grupo_categoria`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []model.TitleGroup
	for rows.Next() {
		var g model.TitleGroup
		if err := rows.Scan(&g.Title, &g.Category, &g.ExamIDs); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
