package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yoockh/jobboard/internal/utils"
	"gorm.io/gorm"
)

// translate maps driver and gorm errors onto the storage sentinels in utils.
// gorm's TranslateError covers postgres and sqlite; the message fallback
// catches drivers opened without it.
func translate(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", utils.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", utils.ErrReference, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "unique constraint"):
		return fmt.Errorf("%w: %v", utils.ErrDuplicate, err)
	case strings.Contains(msg, "foreign key"):
		return fmt.Errorf("%w: %v", utils.ErrReference, err)
	}
	return err
}

// like builds a case-insensitive substring pattern for LOWER(col) LIKE ?.
func like(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
