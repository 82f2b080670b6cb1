package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"BrentPulse/internal/domain/models"
	domrepo "BrentPulse/internal/domain/repository"
	applogger "BrentPulse/pkg/logger"
	"BrentPulse/pkg/postgres"
)

// PGPriceSource reads an existing daily price table from Postgres.
type PGPriceSource struct {
	pool  *postgres.Pool
	table string
	l     *applogger.Logger
}

func NewPGPriceSource(pool *postgres.Pool, table string) *PGPriceSource {
	return &PGPriceSource{pool: pool, table: table}
}

// SetLogger injects a structured logger.
func (s *PGPriceSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *PGPriceSource) Name() string { return "postgres" }

func (s *PGPriceSource) Health(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *PGPriceSource) Load(ctx context.Context, q models.PriceQuery) (models.PriceTable, error) {
	start := time.Now()
	query, args := pgPriceQuery(s.table, q)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("postgres load_prices query error",
				applogger.String("table", s.table),
				applogger.String("symbol", q.Symbol),
				applogger.Error(err),
			)
		}
		return models.PriceTable{}, fmt.Errorf("load prices: %w", err)
	}

	points, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PricePoint, error) {
		var p models.PricePoint
		if err := row.Scan(&p.Time, &p.Price); err != nil {
			return p, err
		}
		p.Time = p.Time.UTC()
		return p, nil
	})
	if err != nil {
		return models.PriceTable{}, fmt.Errorf("scan prices: %w", err)
	}
	if s.l != nil {
		s.l.Info("postgres load_prices ok",
			applogger.String("table", s.table),
			applogger.String("symbol", q.Symbol),
			applogger.Int("rows", len(points)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return models.PriceTable{Symbol: q.Symbol, Source: s.Name(), Points: points}, nil
}

func pgPriceQuery(table string, q models.PriceQuery) (string, []any) {
	query := fmt.Sprintf("SELECT day, close::float8 FROM %s WHERE symbol = $1 AND day >= $2", pgx.Identifier(strings.Split(table, ".")).Sanitize())
	args := []any{q.Symbol, q.From}
	if !q.To.IsZero() {
		query += " AND day <= $3"
		args = append(args, q.To)
	}
	return query + " ORDER BY day ASC", args
}

var (
	_ domrepo.PriceSource   = (*PGPriceSource)(nil)
	_ domrepo.HealthChecker = (*PGPriceSource)(nil)
)
