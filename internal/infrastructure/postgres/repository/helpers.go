package repository

import (
	"errors"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"gorm.io/gorm"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// paginate clamps page and limit the same way for every listing query.
func paginate(page, limit int) (offset, size int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit, limit
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
