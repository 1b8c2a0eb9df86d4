package unitofwork

import (
	"context"
	"fmt"
)

// Transaction runs fn between Begin and Commit, rolling back when fn returns
// an error or panics.
func Transaction(ctx context.Context, uow UnitOfWork, fn func() error) (err error) {
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = uow.Rollback()
			panic(p)
		}
	}()

	if err := fn(); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
