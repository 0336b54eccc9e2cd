package contractors

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/canteen-coupons/pkg/db"
	"github.com/angelmondragon/canteen-coupons/pkg/db/models"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
	"github.com/angelmondragon/canteen-coupons/pkg/security"
	"github.com/angelmondragon/canteen-coupons/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ContractorDTO is the public view of a contractor.
type ContractorDTO struct {
	ID           int64     `json:"id"`
	ContractorID string    `json:"contractorId"`
	BusinessName string    `json:"businessName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func FromModel(m models.Contractor) ContractorDTO {
	return ContractorDTO{
		ID:           m.ID,
		ContractorID: m.ContractorID,
		BusinessName: m.BusinessName,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// Input carries the admin form. Password is optional on update.
type Input struct {
	ContractorID string
	BusinessName string
	Password     string
}

// Service exposes the contractor registry.
type Service interface {
	Create(ctx context.Context, input Input) (*ContractorDTO, error)
	Update(ctx context.Context, id int64, input Input) (*ContractorDTO, error)
	Get(ctx context.Context, id int64) (*ContractorDTO, error)
	List(ctx context.Context) ([]ContractorDTO, error)
	BusinessNames(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id int64) (types.Result, error)
	ChangePassword(ctx context.Context, id int64, current, next string) (types.Result, error)
	Count(ctx context.Context) (int64, error)
}

type service struct {
	tx         txRunner
	repo       *Repository
	hasher     security.PasswordHasher
	ledgerLock sync.Locker
}

// NewService wires the contractor registry. ledgerLock is the coupon
// ledger's Locker, held by Delete while it removes the contractor's coupons;
// nil gives the registry a private one.
func NewService(client *db.Client, repo *Repository, hasher security.PasswordHasher, ledgerLock sync.Locker) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("contractor repository required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	if ledgerLock == nil {
		ledgerLock = &sync.Mutex{}
	}
	return &service{tx: client, repo: repo, hasher: hasher, ledgerLock: ledgerLock}, nil
}

func (in Input) normalize() (Input, error) {
	in.ContractorID = strings.TrimSpace(in.ContractorID)
	in.BusinessName = strings.TrimSpace(in.BusinessName)
	if in.ContractorID == "" {
		return in, pkgerrors.New(pkgerrors.CodeValidation, "contractor id is required")
	}
	if in.BusinessName == "" {
		return in, pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
	}
	return in, nil
}

func (s *service) Create(ctx context.Context, input Input) (*ContractorDTO, error) {
	in, err := input.normalize()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Password) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created models.Contractor
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		maxID, err := repo.MaxID(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read max contractor id")
		}
		created = models.Contractor{
			ID:           maxID + 1,
			ContractorID: in.ContractorID,
			BusinessName: in.BusinessName,
			PasswordHash: hash,
		}
		if err := repo.Create(ctx, &created); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "contractor id already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create contractor")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(created)
	return &dto, nil
}

// Update replaces the contractor record. Employees keep the business name
// they were registered with.
func (s *service) Update(ctx context.Context, id int64, input Input) (*ContractorDTO, error) {
	in, err := input.normalize()
	if err != nil {
		return nil, err
	}
	var hash string
	if strings.TrimSpace(in.Password) != "" {
		if hash, err = s.hasher.Hash(in.Password); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
	}

	var updated *models.Contractor
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		existing.ContractorID = in.ContractorID
		existing.BusinessName = in.BusinessName
		if hash != "" {
			existing.PasswordHash = hash
		}
		if err := repo.Save(ctx, existing); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "contractor id already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update contractor")
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(*updated)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id int64) (*ContractorDTO, error) {
	contractor, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*contractor)
	return &dto, nil
}

func (s *service) List(ctx context.Context) ([]ContractorDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contractors")
	}
	out := make([]ContractorDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) BusinessNames(ctx context.Context) ([]string, error) {
	names, err := s.repo.BusinessNames(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list business names")
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *service) Delete(ctx context.Context, id int64) (types.Result, error) {
	s.ledgerLock.Lock()
	defer s.ledgerLock.Unlock()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		contractor, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := repo.DeleteCascade(ctx, *contractor); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete contractor")
		}
		return nil
	})
	if err != nil {
		return types.Result{}, err
	}
	return types.OK("Contractor deleted successfully."), nil
}

func (s *service) ChangePassword(ctx context.Context, id int64, current, next string) (types.Result, error) {
	if strings.TrimSpace(next) == "" {
		return types.Result{}, pkgerrors.New(pkgerrors.CodeValidation, "new password is required")
	}
	contractor, err := s.load(ctx, s.repo, id)
	if err != nil {
		return types.Result{}, err
	}
	ok, err := s.hasher.Verify(current, contractor.PasswordHash)
	if err != nil {
		return types.Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return types.Result{}, pkgerrors.Fail(pkgerrors.CodeUnauthorized, pkgerrors.ReasonWrongPassword, "The current password you entered is incorrect.")
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return types.Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		return types.Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return types.OK("Password changed successfully."), nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count contractors")
	}
	return count, nil
}

func (s *service) load(ctx context.Context, repo *Repository, id int64) (*models.Contractor, error) {
	contractor, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Fail(pkgerrors.CodeNotFound, pkgerrors.ReasonNotFound, "Contractor not found.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contractor")
	}
	return contractor, nil
}
