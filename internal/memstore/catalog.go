package memstore

import (
	"context"

	"github.com/gitKheang/library-management-system/internal/circulation"
	"github.com/gitKheang/library-management-system/internal/models"
)

// Books implements circulation.BookStore over the shared store.
type Books struct {
	s *Store
}

var _ circulation.BookStore = (*Books)(nil)

func (b *Books) Delete(_ context.Context, bookID string) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	if _, ok := b.s.books[bookID]; !ok {
		return circulation.ErrBookNotFound
	}
	delete(b.s.books, bookID)
	return nil
}

func (b *Books) CountActive(_ context.Context) (int64, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	var n int64
	for _, book := range b.s.books {
		if book.IsActive {
			n++
		}
	}
	return n, nil
}

func (b *Books) Find(_ context.Context, bookID string) (models.Book, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	book, ok := b.s.books[bookID]
	if !ok {
		return models.Book{}, circulation.ErrBookNotFound
	}
	return book, nil
}

// Users implements circulation.UserStore over the shared store.
type Users struct {
	s *Store
}

var _ circulation.UserStore = (*Users)(nil)

func (u *Users) Find(_ context.Context, userID string) (models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	user, ok := u.s.users[userID]
	if !ok {
		return models.User{}, circulation.ErrUserNotFound
	}
	return user, nil
}

func (u *Users) Delete(_ context.Context, userID string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if _, ok := u.s.users[userID]; !ok {
		return circulation.ErrUserNotFound
	}
	delete(u.s.users, userID)
	return nil
}

func (u *Users) Count(_ context.Context) (int64, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	return int64(len(u.s.users)), nil
}
