package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"orgauth-backend/internal/storage"
)

const (
	constraintUserEmail      = "users_email_key"
	constraintMembershipUser = "user_organizations_user_id_fkey"
	constraintMembershipOrg  = "user_organizations_org_id_fkey"
)

// mapError translates PostgreSQL constraint violations into storage sentinel
// errors. Anything else is wrapped with the operation name.
func mapError(op string, err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch string(pqErr.Code) {
	case pgerrcode.UniqueViolation:
		if pqErr.Constraint == constraintUserEmail {
			return storage.ErrEmailTaken
		}
		return fmt.Errorf("%s: unique constraint violation: %s: %w", op, pqErr.Constraint, err)

	case pgerrcode.ForeignKeyViolation:
		switch pqErr.Constraint {
		case constraintMembershipUser:
			return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		case constraintMembershipOrg:
			return fmt.Errorf("%s: %w", op, storage.ErrOrgNotFound)
		}
		return fmt.Errorf("%s: foreign key violation: %s: %w", op, pqErr.Constraint, err)

	default:
		return fmt.Errorf("%s: postgres error [%s]: %w", op, pqErr.Code, err)
	}
}
