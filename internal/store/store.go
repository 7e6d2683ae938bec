package store

import (
	"errors"

	"github.com/matheuscscp/declarative-oauth2/internal/config"
)

const (
	timeout = config.TransactionTimeout
)

var ErrDuplicateState = errors.New("a transaction is already stored for this state")

// Store keeps in-flight transactions keyed by the state sent to the
// provider. Retrieval is one-shot.
type Store interface {
	StoreTransaction(state string, tx *Transaction) error
	RetrieveTransaction(state string) (*Transaction, bool)
}
