package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/certquest/arena-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const resultColumns = `id, simulado_id, usuario_id, respostas, acertos, total_questoes,
	pontuacao, tempo_gasto, aprovado, data_conclusao`

func scanResult(row pgx.Row, res *model.Result) error {
	return row.Scan(&res.ID, &res.ExamID, &res.UserID, &res.Answers, &res.CorrectAnswers,
		&res.TotalQuestions, &res.Score, &res.TimeSpentSeconds, &res.Passed, &res.CompletedAt)
}

// ResultRepository handles result ("resultado") data access. Results are
// append-only.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Create inserts a result. A second insert with the same id is ignored and
// reports inserted=false.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) (bool, error) {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if res.CompletedAt.IsZero() {
		res.CompletedAt = time.Now()
	}
	if res.Answers == nil {
		res.Answers = model.AnswerMap{}
	}
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO resultados (id, simulado_id, usuario_id, respostas, acertos, total_questoes,
		        pontuacao, tempo_gasto, aprovado, data_conclusao)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO NOTHING`,
		res.ID, res.ExamID, res.UserID, res.Answers, res.CorrectAnswers, res.TotalQuestions,
		res.Score, res.TimeSpentSeconds, res.Passed, res.CompletedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// BulkInsert stores a batch of results with one statement. Ids already
// present are skipped, so replaying a batch is harmless.
func (r *ResultRepository) BulkInsert(ctx context.Context, batch []model.Result) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	n := len(batch)
	ids := make([]uuid.UUID, n)
	examIDs := make([]uuid.UUID, n)
	userIDs := make([]string, n)
	answers := make([]string, n)
	correct := make([]int, n)
	totals := make([]int, n)
	scores := make([]float64, n)
	spent := make([]int, n)
	passed := make([]bool, n)
	completed := make([]time.Time, n)

	for i, res := range batch {
		raw, err := json.Marshal(res.Answers)
		if err != nil {
			return 0, fmt.Errorf("encode answers of %s: %w", res.ID, err)
		}
		ids[i] = res.ID
		examIDs[i] = res.ExamID
		if res.UserID != nil {
			userIDs[i] = res.UserID.String()
		}
		answers[i] = string(raw)
		correct[i] = res.CorrectAnswers
		totals[i] = res.TotalQuestions
		scores[i] = res.Score
		spent[i] = res.TimeSpentSeconds
		passed[i] = res.Passed
		completed[i] = res.CompletedAt
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO resultados (id, simulado_id, usuario_id, respostas, acertos, total_questoes,
		        pontuacao, tempo_gasto, aprovado, data_conclusao)
		SELECT u.id, u.simulado_id, NULLIF(u.usuario_id, '')::uuid, u.respostas::jsonb,
		       u.acertos, u.total_questoes, u.pontuacao, u.tempo_gasto, u.aprovado, u.data_conclusao
		FROM UNNEST(
			$1::uuid[],
			$2::uuid[],
			$3::text[],
			$4::text[],
			$5::int[],
			$6::int[],
			$7::float8[],
			$8::int[],
			$9::bool[],
			$10::timestamptz[]
		) AS u (id, simulado_id, usuario_id, respostas, acertos, total_questoes,
		        pontuacao, tempo_gasto, aprovado, data_conclusao)
		ON CONFLICT (id) DO NOTHING`,
		ids, examIDs, userIDs, answers, correct, totals, scores, spent, passed, completed)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// GetByID retrieves a result by id.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	res := &model.Result{}
	row := r.pool.QueryRow(ctx, `SELECT `+resultColumns+` FROM resultados WHERE id = $1`, id)
	if err := scanResult(row, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ListByUser returns a page of a user's results, newest first, and the total.
func (r *ResultRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Result, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM resultados WHERE usuario_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM resultados
		 WHERE usuario_id = $1
		 ORDER BY data_conclusao DESC
		 LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results := []model.Result{}
	for rows.Next() {
		var res model.Result
		if err := scanResult(rows, &res); err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}
