package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SergeiKhy/linktrack/internal/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// defaultBatchSize - размер одного IN-фильтра по link_id. Ограничение
// унаследовано от документных хранилищ, где фильтр "value in set"
// принимает не больше 30 значений.
const defaultBatchSize = 30

type ClickRepository interface {
	Insert(ctx context.Context, click *models.Click) error
	ListByLinkIDs(ctx context.Context, linkIDs []uuid.UUID, from, to time.Time) ([]models.Click, error)
	GetLinkStats(ctx context.Context, linkID uuid.UUID) (*models.LinkStats, error)
}

type clickRepository struct {
	db        *PostgresDB
	batchSize int
}

func NewClickRepository(db *PostgresDB) ClickRepository {
	return NewClickRepositoryWithBatchSize(db, defaultBatchSize)
}

func NewClickRepositoryWithBatchSize(db *PostgresDB, batchSize int) ClickRepository {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &clickRepository{db: db, batchSize: batchSize}
}

// Insert добавляет запись клика. Метка времени назначается сервером БД,
// а не вызывающей стороной.
func (r *clickRepository) Insert(ctx context.Context, click *models.Click) error {
	query := `
		INSERT INTO clicks (link_id, ip_address, city, country, user_agent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, clicked_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		click.LinkID,
		click.IPAddress,
		click.City,
		click.Country,
		click.UserAgent,
	).Scan(&click.ID, &click.ClickedAt)

	if err != nil {
		return fmt.Errorf("failed to insert click: %w", err)
	}

	return nil
}

// ListByLinkIDs выбирает клики по набору ссылок за интервал [from, to).
// Набор ID режется на батчи в пределах лимита IN-фильтра, батчи
// выполняются параллельно, результат сливается и сортируется по
// (clicked_at, id) для детерминированного вывода.
func (r *clickRepository) ListByLinkIDs(ctx context.Context, linkIDs []uuid.UUID, from, to time.Time) ([]models.Click, error) {
	if len(linkIDs) == 0 {
		return []models.Click{}, nil
	}

	batches := lo.Chunk(linkIDs, r.batchSize)
	results := make([][]models.Click, len(batches))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []uuid.UUID) {
			defer wg.Done()

			clicks, err := r.listBatch(ctx, batch, from, to)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			results[i] = clicks
		}(i, batch)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	merged := lo.Flatten(results)
	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].ClickedAt.Equal(merged[j].ClickedAt) {
			return merged[i].ClickedAt.Before(merged[j].ClickedAt)
		}
		return merged[i].ID.String() < merged[j].ID.String()
	})

	return merged, nil
}

func (r *clickRepository) listBatch(ctx context.Context, linkIDs []uuid.UUID, from, to time.Time) ([]models.Click, error) {
	query := `
		SELECT id, link_id, clicked_at, ip_address, city, country, user_agent
		FROM clicks
		WHERE link_id = ANY($1)
			AND clicked_at >= $2
			AND clicked_at < $3
	`

	rows, err := r.db.Pool.Query(ctx, query, linkIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}
	defer rows.Close()

	var clicks []models.Click
	for rows.Next() {
		var click models.Click
		if err := rows.Scan(
			&click.ID,
			&click.LinkID,
			&click.ClickedAt,
			&click.IPAddress,
			&click.City,
			&click.Country,
			&click.UserAgent,
		); err != nil {
			return nil, fmt.Errorf("failed to scan click: %w", err)
		}
		clicks = append(clicks, click)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clicks: %w", err)
	}

	return clicks, nil
}

func (r *clickRepository) GetLinkStats(ctx context.Context, linkID uuid.UUID) (*models.LinkStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_clicks,
			COUNT(DISTINCT ip_address) AS unique_clicks
		FROM clicks
		WHERE link_id = $1
	`

	stats := &models.LinkStats{LinkID: linkID}
	err := r.db.Pool.QueryRow(ctx, query, linkID).Scan(
		&stats.TotalClicks,
		&stats.UniqueClicks,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get click stats: %w", err)
	}

	return stats, nil
}
