package repository

import (
	"context"

	"gorm.io/gorm"
)

type sqlUnitOfWork struct {
	lifecycle
	tx    *gorm.DB
	store InventoryStore
}

type sqlUnitOfWorkFactory struct {
	db *gorm.DB
}

func NewSQLUnitOfWorkFactory(db *gorm.DB) UnitOfWorkFactory {
	return &sqlUnitOfWorkFactory{db: db}
}

func (f *sqlUnitOfWorkFactory) Begin(ctx context.Context) (UnitOfWork, error) {
	tx := f.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	uow := &sqlUnitOfWork{tx: tx, store: NewSQLInventoryStore(tx)}
	uow.open()
	return uow, nil
}

func (u *sqlUnitOfWork) Store() InventoryStore { return u.store }

func (u *sqlUnitOfWork) Commit() error {
	return u.finish(UnitOfWorkCommitted, func() error {
		return u.tx.Commit().Error
	})
}

func (u *sqlUnitOfWork) Rollback() error {
	return u.finish(UnitOfWorkRolledBack, func() error {
		return u.tx.Rollback().Error
	})
}
