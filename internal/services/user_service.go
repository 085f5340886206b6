package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mkisten/UserBankingService/internal/audit"
	"github.com/mkisten/UserBankingService/internal/cache"
	"github.com/mkisten/UserBankingService/internal/database"
	"github.com/mkisten/UserBankingService/internal/models"
	"github.com/mkisten/UserBankingService/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// MaxPageSize bounds the size of one search page.
const MaxPageSize = 100

// contactRules are the validator tags applied to new contact values.
var contactRules = map[models.ContactKind]string{
	models.ContactEmail: "required,email,max=200",
	models.ContactPhone: "required,phone",
}

// UserService owns login resolution, contact mutation and directory search.
type UserService struct {
	db        DB
	users     UserStore
	contacts  map[models.ContactKind]ContactStore
	cache     *cache.Cache
	audit     *audit.Logger
	validator *ValidationHelper
	log       *logrus.Entry
}

func NewUserService(db DB, users UserStore, emails, phones ContactStore, c *cache.Cache, a *audit.Logger) *UserService {
	if a == nil {
		a = audit.NewLogger(nil)
	}
	return &UserService{
		db:    db,
		users: users,
		contacts: map[models.ContactKind]ContactStore{
			emails.Kind(): emails,
			phones.Kind(): phones,
		},
		cache:     c,
		audit:     a,
		validator: NewValidationHelper(),
		log:       logrus.WithField("component", "user_service"),
	}
}

// Login resolves the user behind email (preferred) or phone and checks the
// password. It returns the user id on success.
func (s *UserService) Login(ctx context.Context, email, phone, password string) (int64, error) {
	email, phone = strings.TrimSpace(email), strings.TrimSpace(phone)

	var (
		kind  models.ContactKind
		value string
	)
	switch {
	case email != "":
		kind, value = models.ContactEmail, email
	case phone != "":
		kind, value = models.ContactPhone, phone
	default:
		return 0, BadRequest("email or phone is required")
	}

	userID, err := s.ownerOf(ctx, kind, value)
	if err != nil {
		return 0, err
	}

	user, err := s.users.FindByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, NotFound("user not found")
		}
		return 0, Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.log.WithField("user_id", userID).Info("[AUTH] password mismatch")
			return 0, Unauthenticated("invalid credentials")
		}
		return 0, Internal(fmt.Errorf("verify password: %w", err))
	}
	return user.ID, nil
}

// ownerOf maps a contact value to its owner, consulting the cache first.
func (s *UserService) ownerOf(ctx context.Context, kind models.ContactKind, value string) (int64, error) {
	if id, ok := s.cache.UserIDByContact(ctx, kind, value); ok {
		return id, nil
	}

	contact, err := s.contacts[kind].FindByValue(ctx, s.db, value)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, NotFound("user not found")
		}
		return 0, Internal(err)
	}
	s.cache.RememberContact(ctx, kind, value, contact.UserID)
	return contact.UserID, nil
}

// AddContact attaches a new email or phone to userID. The value must not be
// in use by anyone.
func (s *UserService) AddContact(ctx context.Context, userID int64, kind models.ContactKind, value string) error {
	store, value, err := s.prepare(kind, value)
	if err != nil {
		return err
	}

	err = database.WithTx(ctx, s.db, database.Serializable, func(tx *sqlx.Tx) error {
		exists, err := store.ExistsByValue(ctx, tx, value)
		if err != nil {
			return err
		}
		if exists {
			return Conflict(fmt.Sprintf("%s already in use", kind))
		}
		return store.Insert(ctx, tx, &models.Contact{UserID: userID, Value: value})
	})
	if err != nil {
		return s.fail(err, "add", userID, kind)
	}

	s.cache.InvalidateContact(ctx, kind, value)
	s.audit.LogContact(userID, string(kind), value, true)
	return nil
}

// RemoveContact detaches value from userID. The caller must own the row and
// keep at least one contact of the same kind.
func (s *UserService) RemoveContact(ctx context.Context, userID int64, kind models.ContactKind, value string) error {
	store, ok := s.contacts[kind]
	if !ok {
		return BadRequest(fmt.Sprintf("unknown contact kind %q", kind))
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return BadRequest(fmt.Sprintf("%s is required", kind))
	}

	err := database.WithTx(ctx, s.db, database.Serializable, func(tx *sqlx.Tx) error {
		contact, err := store.FindByValue(ctx, tx, value)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NotFound(fmt.Sprintf("%s not found", kind))
			}
			return err
		}
		if contact.UserID != userID {
			return Forbidden(fmt.Sprintf("%s belongs to another user", kind))
		}

		n, err := store.CountByOwner(ctx, tx, userID)
		if err != nil {
			return err
		}
		if n <= 1 {
			return Conflict(fmt.Sprintf("at least one %s required", kind))
		}
		return store.Delete(ctx, tx, contact)
	})
	if err != nil {
		return s.fail(err, "remove", userID, kind)
	}

	s.cache.InvalidateContact(ctx, kind, value)
	s.audit.LogContact(userID, string(kind), value, false)
	return nil
}

func (s *UserService) prepare(kind models.ContactKind, value string) (ContactStore, string, error) {
	store, ok := s.contacts[kind]
	if !ok {
		return nil, "", BadRequest(fmt.Sprintf("unknown contact kind %q", kind))
	}
	value = strings.TrimSpace(value)
	if err := s.validator.ValidateVar(value, contactRules[kind]); err != nil {
		return nil, "", &Error{Kind: KindBadRequest, Message: fmt.Sprintf("invalid %s", kind), Err: err}
	}
	return store, value, nil
}

func (s *UserService) fail(err error, op string, userID int64, kind models.ContactKind) error {
	err = storeError(err)
	entry := s.log.WithFields(logrus.Fields{"op": op, "user_id": userID, "kind": kind})
	if KindOf(err) == KindInternal {
		entry.WithError(err).Error("[CONTACT] operation failed")
	} else {
		entry.WithField("reason", err.Error()).Info("[CONTACT] operation rejected")
	}
	return err
}

// Search returns one page of the user directory filtered by every non-empty
// criterion.
func (s *UserService) Search(ctx context.Context, c models.SearchCriteria, page, size int) (models.Page[models.UserView], error) {
	var result models.Page[models.UserView]
	if page < 0 {
		return result, BadRequest("page must not be negative")
	}
	if size < 1 || size > MaxPageSize {
		return result, BadRequest(fmt.Sprintf("size must be between 1 and %d", MaxPageSize))
	}

	key := cache.SearchKey(s.cache.SearchGeneration(ctx), c, page, size)
	if s.cache.GetJSON(ctx, key, &result) {
		return result, nil
	}

	err := database.WithTx(ctx, s.db, database.Snapshot, func(tx *sqlx.Tx) error {
		users, total, err := s.users.Search(ctx, tx, c, page, size)
		if err != nil {
			return err
		}

		ids := make([]int64, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		emails, err := s.contacts[models.ContactEmail].ListByOwners(ctx, tx, ids)
		if err != nil {
			return err
		}
		phones, err := s.contacts[models.ContactPhone].ListByOwners(ctx, tx, ids)
		if err != nil {
			return err
		}

		views := make([]models.UserView, len(users))
		for i, u := range users {
			views[i] = models.NewUserView(u, emails[u.ID], phones[u.ID])
		}
		result = models.NewPage(views, page, size, total)
		return nil
	})
	if err != nil {
		err = storeError(err)
		s.log.WithError(err).Error("[SEARCH] query failed")
		return models.Page[models.UserView]{}, err
	}

	s.cache.SetJSON(ctx, key, result)
	return result, nil
}
