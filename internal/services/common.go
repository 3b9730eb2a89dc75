package services

import (
	"github.com/refprog/backend/internal/config"
	"github.com/refprog/backend/internal/store"
)

// createLocks serializes every check-then-insert uniqueness section by its
// key (phone, referral pair, partner code, ...), closing the race between
// two concurrent creators.
var createLocks = store.NewKeyedMutex()

func configItemsPerPage() int {
	return config.Get().ItemsPerPage
}
