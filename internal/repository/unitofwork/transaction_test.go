package unitofwork

import (
	"context"
	"errors"
	"testing"

	"kt-assistant-be/internal/repository/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUow struct {
	calls    []string
	beginErr error
}

func (u *recordingUow) Begin(ctx context.Context) error {
	u.calls = append(u.calls, "begin")
	return u.beginErr
}

func (u *recordingUow) Commit() error {
	u.calls = append(u.calls, "commit")
	return nil
}

func (u *recordingUow) Rollback() error {
	u.calls = append(u.calls, "rollback")
	return nil
}

func (u *recordingUow) SessionRepository() contract.SessionRepository { return nil }
func (u *recordingUow) MessageRepository() contract.MessageRepository { return nil }

func TestTransaction(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		beginErr  error
		fnErr     error
		wantErr   error
		wantCalls []string
	}{
		{name: "commit", wantCalls: []string{"begin", "commit"}},
		{name: "rollback on error", fnErr: boom, wantErr: boom, wantCalls: []string{"begin", "rollback"}},
		{name: "begin fails", beginErr: boom, wantErr: boom, wantCalls: []string{"begin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uow := &recordingUow{beginErr: tt.beginErr}
			err := Transaction(context.Background(), uow, func() error { return tt.fnErr })

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, uow.calls)
		})
	}
}

func TestTransaction_RollsBackOnPanic(t *testing.T) {
	uow := &recordingUow{}
	require.Panics(t, func() {
		_ = Transaction(context.Background(), uow, func() error { panic("bad row") })
	})
	assert.Equal(t, []string{"begin", "rollback"}, uow.calls)
}
