package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gitKheang/library-management-system/internal/copypool"
	"github.com/gitKheang/library-management-system/internal/models"
)

// Pool implements copypool.Pool over the shared store. The store mutex makes
// every claim an atomic read-modify-write on a single copy record.
type Pool struct {
	s *Store
}

var _ copypool.Pool = (*Pool)(nil)

func (p *Pool) AddCopies(_ context.Context, bookID, title string, count int) ([]models.Copy, error) {
	if count <= 0 {
		return nil, nil
	}

	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	existing := 0
	for _, c := range p.s.copies {
		if c.BookID == bookID {
			existing++
		}
	}

	now := time.Now()
	out := make([]models.Copy, 0, count)
	for i := 0; i < count; i++ {
		c := models.Copy{
			ID:        uuid.NewString(),
			BookID:    bookID,
			CopyCode:  copypool.CopyCode(title, existing+i+1),
			Status:    models.CopyAvailable,
			CreatedAt: now,
			UpdatedAt: now,
		}
		p.s.copies[c.ID] = c
		p.s.copyOrder = append(p.s.copyOrder, c.ID)
		out = append(out, c)
	}
	return out, nil
}

func (p *Pool) ClaimAvailableCopy(_ context.Context, bookID string) (models.Copy, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	for _, id := range p.s.copyOrder {
		c, ok := p.s.copies[id]
		if !ok || c.BookID != bookID || c.Status != models.CopyAvailable {
			continue
		}
		c.Status = models.CopyBorrowed
		c.UpdatedAt = time.Now()
		p.s.copies[id] = c
		return c, nil
	}
	return models.Copy{}, copypool.ErrNoCopiesAvailable
}

func (p *Pool) ReleaseCopy(_ context.Context, copyID string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	c, ok := p.s.copies[copyID]
	if !ok {
		return nil
	}
	c.Status = models.CopyAvailable
	c.UpdatedAt = time.Now()
	p.s.copies[copyID] = c
	return nil
}

func (p *Pool) Counts(_ context.Context, bookID string) (int64, int64, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	var total, available int64
	for _, c := range p.s.copies {
		if c.BookID != bookID {
			continue
		}
		total++
		if c.Status == models.CopyAvailable {
			available++
		}
	}
	return total, available, nil
}

func (p *Pool) SetStatus(_ context.Context, copyID string, status models.CopyStatus) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	c, ok := p.s.copies[copyID]
	if !ok {
		return copypool.ErrCopyNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	p.s.copies[copyID] = c
	return nil
}

func (p *Pool) CopiesForBook(_ context.Context, bookID string) ([]models.Copy, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	var out []models.Copy
	for _, c := range p.s.orderedCopies() {
		if c.BookID == bookID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (p *Pool) DeleteForBook(_ context.Context, bookID string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	for id, c := range p.s.copies {
		if c.BookID == bookID {
			delete(p.s.copies, id)
		}
	}
	return nil
}
