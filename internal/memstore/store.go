// Package memstore is the dependency-free in-memory implementation of the
// circulation core: the same pool/ledger/store interfaces the Mongo
// implementations satisfy, backed by indexed collections behind one mutex.
// It exists as the swappable test double and demo backend.
package memstore

import (
	"sync"

	"github.com/gitKheang/library-management-system/internal/models"
)

// Store owns all records. Copies and loans keep an insertion-order index so
// reads are deterministic and recent-loan ties break by insertion order.
type Store struct {
	mu sync.Mutex

	books map[string]models.Book
	users map[string]models.User

	copies    map[string]models.Copy
	copyOrder []string

	loans     map[string]models.Loan
	loanOrder []string
}

func NewStore() *Store {
	return &Store{
		books:  make(map[string]models.Book),
		users:  make(map[string]models.User),
		copies: make(map[string]models.Copy),
		loans:  make(map[string]models.Loan),
	}
}

func (s *Store) Pool() *Pool     { return &Pool{s: s} }
func (s *Store) Ledger() *Ledger { return &Ledger{s: s} }
func (s *Store) BookSet() *Books { return &Books{s: s} }
func (s *Store) UserSet() *Users { return &Users{s: s} }

// PutBook and PutUser seed records directly; tests and demos only.
func (s *Store) PutBook(book models.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[book.ID] = book
}

func (s *Store) PutUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// orderedCopies returns the live copies in insertion order. Caller holds mu.
func (s *Store) orderedCopies() []models.Copy {
	out := make([]models.Copy, 0, len(s.copies))
	for _, id := range s.copyOrder {
		if c, ok := s.copies[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// orderedLoans returns the live loans in insertion order. Caller holds mu.
func (s *Store) orderedLoans() []models.Loan {
	out := make([]models.Loan, 0, len(s.loans))
	for _, id := range s.loanOrder {
		if l, ok := s.loans[id]; ok {
			out = append(out, l)
		}
	}
	return out
}
