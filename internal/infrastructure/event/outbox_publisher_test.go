package event

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPublisherFixture(t *testing.T) (*OutboxPublisher, *gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	repo, mock := newMockRepo(t)
	serializer := NewEventSerializer()
	serializer.Register("receipt_note.posted", &stubEvent{})
	return NewOutboxPublisher(serializer), repo.db, mock
}

func TestOutboxPublisher_SaveEvents(t *testing.T) {
	publisher, db, mock := newPublisherFixture(t)

	corporationID := uuid.New()
	events := []shared.DomainEvent{
		newScopedStubEvent("receipt_note.posted", corporationID),
		newScopedStubEvent("receipt_note.posted", corporationID),
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "outbox_entries"`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := db.Transaction(func(tx *gorm.DB) error {
		return publisher.SaveEvents(context.Background(), tx, events...)
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxPublisher_SaveEvents_NothingToSave(t *testing.T) {
	publisher, db, mock := newPublisherFixture(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := db.Transaction(func(tx *gorm.DB) error {
		return publisher.SaveEvents(context.Background(), tx)
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxPublisher_SaveEvents_RollsBackWithCaller(t *testing.T) {
	publisher, db, mock := newPublisherFixture(t)

	corporationID := uuid.New()
	evt := newScopedStubEvent("receipt_note.posted", corporationID)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "outbox_entries"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	saveFailed := errors.New("shortfall validation failed")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := publisher.SaveEvents(context.Background(), tx, evt); err != nil {
			return err
		}
		return saveFailed
	})

	require.ErrorIs(t, err, saveFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxPublisher_SaveEvents_RejectsForeignTxProvider(t *testing.T) {
	publisher, _, _ := newPublisherFixture(t)

	err := publisher.SaveEvents(context.Background(), "not a tx", newStubEvent("receipt_note.posted"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a *gorm.DB")
}

func TestCorporationOf(t *testing.T) {
	corporationID := uuid.New()

	assert.Equal(t, corporationID, corporationOf(newScopedStubEvent("receipt_note.posted", corporationID)))
	assert.Equal(t, uuid.Nil, corporationOf(newStubEvent("receipt_note.posted")))
}
