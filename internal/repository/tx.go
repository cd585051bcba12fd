package repository

import (
	"context"
	"database/sql"
	"errors"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/avito-tech/go-transaction-manager/trm/v2/settings"
	"github.com/lib/pq"

	"eventpal/internal/logs"
)

const serializationFailure = "40001"

// TxRunner runs functions inside serializable postgres transactions.
// Serialization failures are retried; any other error aborts.
type TxRunner struct {
	manager *trmanager.Manager
}

func NewTxRunner(manager *trmanager.Manager) *TxRunner {
	return &TxRunner{manager: manager}
}

func (r *TxRunner) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	const attempts = 3

	var lastErr error
	for i := 0; i < attempts; i++ {
		err := r.manager.DoWithSettings(
			ctx,
			trmsql.MustSettings(
				settings.Must(settings.WithCancelable(true)),
				trmsql.WithTxOptions(&sql.TxOptions{Isolation: sql.LevelSerializable}),
			),
			fn,
		)
		if err == nil {
			return nil
		}

		pgErr := &pq.Error{}
		if errors.As(err, &pgErr) && pgErr.Code == serializationFailure {
			logs.FromContext(ctx).
				WithField("attempt", i+1).
				WithField("error", err).
				Warn("Transaction serialization failure, retrying")
			lastErr = err
			continue
		}

		return err
	}
	return lastErr
}
