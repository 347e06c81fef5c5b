package pgsync

import (
	"context"

	"github.com/BearBump/SyncBox/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Store — операции над одним агрегатом внутри транзакции батча.
type Store interface {
	// FindByOrderNumber возвращает (nil, nil), если заказа нет.
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	InsertOrder(ctx context.Context, o *models.Order) (int64, error)
	UpdateOrderFields(ctx context.Context, o *models.Order) error
	ReplaceChildren(ctx context.Context, orderID int64, containers []models.Container, tasks []models.Task) error
}

// AggregateTx — savepoint внутри батча: откат одного агрегата
// не трогает остальные.
type AggregateTx interface {
	Store
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// BatchTx — транзакция на весь батч синхронизации.
type BatchTx interface {
	Aggregate(ctx context.Context) (AggregateTx, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Storage struct {
	db *pgxpool.Pool
}

func New(connString string) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "parse pg config")
	}

	db, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect pg")
	}

	s := &Storage{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Storage) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *Storage) Ping(ctx context.Context) error {
	return errors.Wrap(s.db.Ping(ctx), "ping pg")
}

func (s *Storage) BeginBatch(ctx context.Context) (BatchTx, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin batch tx")
	}
	return &batchTx{tx: tx}, nil
}

type batchTx struct {
	tx pgx.Tx
}

func (b *batchTx) Aggregate(ctx context.Context) (AggregateTx, error) {
	// pgx превращает вложенный Begin в SAVEPOINT.
	sp, err := b.tx.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin savepoint")
	}
	return &aggregateTx{tx: sp}, nil
}

func (b *batchTx) Commit(ctx context.Context) error {
	return errors.Wrap(b.tx.Commit(ctx), "commit batch tx")
}

func (b *batchTx) Rollback(ctx context.Context) error {
	return errors.Wrap(b.tx.Rollback(ctx), "rollback batch tx")
}

type aggregateTx struct {
	tx pgx.Tx
}

func (a *aggregateTx) Commit(ctx context.Context) error {
	return errors.Wrap(a.tx.Commit(ctx), "release savepoint")
}

func (a *aggregateTx) Rollback(ctx context.Context) error {
	return errors.Wrap(a.tx.Rollback(ctx), "rollback savepoint")
}
