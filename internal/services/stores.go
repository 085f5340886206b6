package services

import (
	"context"

	"github.com/mkisten/UserBankingService/internal/database"
	"github.com/mkisten/UserBankingService/internal/models"
	"github.com/mkisten/UserBankingService/internal/repository"
)

// DB is the connection pool the services open transactions on.
type DB interface {
	database.Beginner
	repository.DBExecutor
}

type UserStore interface {
	FindByID(ctx context.Context, q repository.DBExecutor, id int64) (*models.User, error)
	Search(ctx context.Context, q repository.DBExecutor, c models.SearchCriteria, page, size int) ([]models.User, int64, error)
}

type AccountStore interface {
	FindByUserIDForUpdate(ctx context.Context, q repository.DBExecutor, userID int64) (*models.Account, error)
	Save(ctx context.Context, q repository.DBExecutor, account *models.Account) error
	ListAll(ctx context.Context, q repository.DBExecutor) ([]models.Account, error)
}

// ContactStore is implemented once per contact table.
type ContactStore interface {
	Kind() models.ContactKind
	ExistsByValue(ctx context.Context, q repository.DBExecutor, value string) (bool, error)
	FindByValue(ctx context.Context, q repository.DBExecutor, value string) (*models.Contact, error)
	CountByOwner(ctx context.Context, q repository.DBExecutor, userID int64) (int64, error)
	Insert(ctx context.Context, q repository.DBExecutor, c *models.Contact) error
	Delete(ctx context.Context, q repository.DBExecutor, c *models.Contact) error
	ListByOwners(ctx context.Context, q repository.DBExecutor, userIDs []int64) (map[int64][]string, error)
}
