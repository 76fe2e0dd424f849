package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/SergeiKhy/linktrack/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresDB struct {
	Pool *pgxpool.Pool
}

func NewPostgresDB(cfg config.DBConfig) (*PostgresDB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB config: %w", err)
	}

	// Настройка пула соединений
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{Pool: pool}, nil
}

// Migrate создаёт схему, если её ещё нет. Внешних ключей между clicks
// и links нет намеренно: клики переживают удаление ссылки.
func (db *PostgresDB) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS links (
			id           uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			short_code   text NOT NULL,
			original_url text NOT NULL,
			owner_id     text NOT NULL,
			created_at   timestamptz NOT NULL DEFAULT now()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_links_short_code ON links (short_code);
		CREATE INDEX IF NOT EXISTS idx_links_owner ON links (owner_id);

		CREATE TABLE IF NOT EXISTS clicks (
			id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			link_id    uuid NOT NULL,
			clicked_at timestamptz NOT NULL DEFAULT now(),
			ip_address text,
			city       text,
			country    text,
			user_agent text
		);
		CREATE INDEX IF NOT EXISTS idx_clicks_link_id ON clicks (link_id);
		CREATE INDEX IF NOT EXISTS idx_clicks_clicked_at ON clicks (clicked_at);
	`

	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (db *PostgresDB) Close() {
	db.Pool.Close()
}
