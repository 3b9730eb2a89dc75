// Package store holds the small pieces shared by every persistence path:
// soft-delete-aware lookup helpers and the keyed lock that serializes
// check-then-insert uniqueness sections.
package store

import (
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/db"
)

// FirstActive loads one non-deleted row into dest by the given condition,
// translating a miss into the structured NotFound error.
func FirstActive(dest any, model, idType string, idValue any, query string, args ...any) error {
	err := db.Conn().Where(query, args...).Where("is_deleted = ?", false).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(model, idType, idValue)
	}
	return err
}

// ByIDAnyState loads a row by primary key ignoring the deleted flag. Audit
// and history reads use this.
func ByIDAnyState(dest any, model string, id uint) error {
	err := db.Conn().First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(model, "id", id)
	}
	return err
}

// SoftDelete flips the deleted flag on a loaded row.
func SoftDelete(row any) error {
	return db.Conn().Model(row).Update("is_deleted", true).Error
}

// KeyedMutex hands out one mutex per string key, so two concurrent creators
// of the same phone/code/pair serialize while unrelated keys proceed.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
