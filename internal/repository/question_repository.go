package repository

import (
	"context"
	"fmt"

	"github.com/certquest/arena-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question and option data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves the questions of an exam with their options, ordered
// by ordem. An empty language returns every language.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID, language string) ([]model.Question, error) {
	query := `SELECT id, simulado_id, enunciado, tipo, explicacao, categoria, dificuldade,
	                 pontos, tags, url_referencia, language, ordem
	          FROM questoes WHERE simulado_id = $1`
	args := []any{examID}
	if language != "" {
		args = append(args, language)
		query += fmt.Sprintf(` AND language = $%d`, len(args))
	}
	query += ` ORDER BY ordem, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	index := make(map[uuid.UUID]int)
	ids := []uuid.UUID{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Text, &q.Type, &q.Explanation, &q.Category, &q.Difficulty,
			&q.Points, &q.Tags, &q.ReferenceURL, &q.Language, &q.OrderNum); err != nil {
			return nil, err
		}
		q.Options = []model.Option{}
		index[q.ID] = len(questions)
		ids = append(ids, q.ID)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return questions, nil
	}

	optRows, err := r.pool.Query(ctx,
		`SELECT id, questao_id, texto, correta, ordem
		 FROM opcoes_questao WHERE questao_id = ANY($1)
		 ORDER BY questao_id, ordem, id`, ids)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()

	for optRows.Next() {
		var o model.Option
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect, &o.OrderNum); err != nil {
			return nil, err
		}
		i := index[o.QuestionID]
		questions[i].Options = append(questions[i].Options, o)
	}
	return questions, optRows.Err()
}

// CountByExam returns the number of question rows of an exam. Sessions trust
// this count, not simulados.numero_questoes.
func (r *QuestionRepository) CountByExam(ctx context.Context, examID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questoes WHERE simulado_id = $1`, examID).Scan(&n)
	return n, err
}

// Create inserts a question with its options and refreshes the exam's
// stored question count, all in one transaction.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if q.Tags == nil {
			q.Tags = []string{}
		}
		if err := tx.QueryRow(ctx,
			`INSERT INTO questoes (simulado_id, enunciado, tipo, explicacao, categoria, dificuldade,
			        pontos, tags, url_referencia, language, ordem)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING id`,
			q.ExamID, q.Text, q.Type, q.Explanation, q.Category, q.Difficulty,
			q.Points, q.Tags, q.ReferenceURL, q.Language, q.OrderNum,
		).Scan(&q.ID); err != nil {
			return fmt.Errorf("insert question: %w", err)
		}

		for i := range q.Options {
			o := &q.Options[i]
			o.QuestionID = q.ID
			if err := tx.QueryRow(ctx,
				`INSERT INTO opcoes_questao (questao_id, texto, correta, ordem)
				 VALUES ($1, $2, $3, $4) RETURNING id`,
				o.QuestionID, o.Text, o.IsCorrect, o.OrderNum,
			).Scan(&o.ID); err != nil {
				return fmt.Errorf("insert option %d: %w", i, err)
			}
		}

		_, err := tx.Exec(ctx,
			`UPDATE simulados
			 SET numero_questoes = (SELECT COUNT(*) FROM questoes WHERE simulado_id = $1), updated_at = NOW()
			 WHERE id = $1`, q.ExamID)
		return err
	})
}

// Delete removes a question of an exam and refreshes the stored count.
func (r *QuestionRepository) Delete(ctx context.Context, examID, questionID uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM questoes WHERE id = $1 AND simulado_id = $2`, questionID, examID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		_, err = tx.Exec(ctx,
			`UPDATE simulados
			 SET numero_questoes = (SELECT COUNT(*) FROM questoes WHERE simulado_id = $1), updated_at = NOW()
			 WHERE id = $1`, examID)
		return err
	})
}
