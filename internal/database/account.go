package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assetlease/assetlease/internal/usecase"
)

type Account struct {
	ID        uuid.UUID       `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Name      string          `gorm:"column:name;type:varchar(255)"`
	Role      string          `gorm:"column:role;type:varchar(20);default:USER"`
	Balance   int64           `gorm:"column:balance;not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
	DeletedAt *gorm.DeletedAt `gorm:"column:deleted_at"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a Account) ConvertToUsecase() usecase.Account {
	var d *time.Time
	if a.DeletedAt != nil {
		d = &a.DeletedAt.Time
	}
	return usecase.Account{
		ID:        a.ID,
		Name:      a.Name,
		Role:      usecase.AccountRole(a.Role),
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
		DeletedAt: d,
	}
}

func (s *service) CreateAccount(ctx context.Context, a usecase.Account) (usecase.Account, error) {
	account := Account{
		ID:   a.ID,
		Name: a.Name,
		Role: string(a.Role),
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		return usecase.Account{}, err
	}
	return account.ConvertToUsecase(), nil
}

func (s *service) GetAccountByID(ctx context.Context, id uuid.UUID) (usecase.Account, error) {
	var a Account
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.Account{}, usecase.ErrNotFoundf("account not found")
	}
	if err != nil {
		return usecase.Account{}, err
	}
	return a.ConvertToUsecase(), nil
}

func (s *service) ListAccounts(ctx context.Context, opt usecase.ListAccountsOption) ([]usecase.Account, int, error) {
	var (
		accounts []Account
		count    int64
	)

	db := s.db.Model([]Account{}).WithContext(ctx)

	if opt.Name != "" {
		db = db.Where("name ILIKE ?", "%"+opt.Name+"%")
	}
	if opt.Role != "" {
		db = db.Where("role = ?", string(opt.Role))
	}

	sortBy := "created_at"
	if opt.SortBy != "" {
		sortBy = opt.SortBy
	}
	sortIn := "desc"
	if opt.SortIn != "" {
		sortIn = opt.SortIn
	}

	err := db.
		Count(&count).
		Order(sortBy + " " + sortIn).
		Limit(opt.Limit).
		Offset(opt.Skip).
		Find(&accounts).
		Error
	if err != nil {
		return nil, 0, err
	}

	list := make([]usecase.Account, 0, len(accounts))
	for _, a := range accounts {
		list = append(list, a.ConvertToUsecase())
	}
	return list, int(count), nil
}

func (s *service) UpdateAccountRole(ctx context.Context, id uuid.UUID, role usecase.AccountRole) error {
	res := s.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", id).
		Update("role", string(role))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrNotFoundf("account not found")
	}
	return nil
}
