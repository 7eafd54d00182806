package metrics

import (
	"database/sql"

	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/logger"
)

// inTx runs fn inside a transaction and commits when fn returns nil.
// Begin and commit failures are reported under code; errors from fn are
// returned as is after the rollback.
func inTx(db *sql.DB, log logger.Logger, code errors.ErrorCode, fn func(*sql.Tx) error) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(code, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Debug().Err(rbErr).Str("code", string(code)).Msg("Rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(code, err)
	}
	return nil
}

func stageError(code errors.ErrorCode, phase string, err error) error {
	return errors.New().WithData(code, struct {
		Phase string
		Error string
	}{
		Phase: phase,
		Error: err.Error(),
	})
}
