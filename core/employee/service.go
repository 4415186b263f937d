package employee

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/kazi/core"
)

var (
	// errors
	ErrNotFound  = errors.New("employee not found")
	ErrUIDExists = errors.New("an employee with this badge uid already exists")
)

type (
	Repository interface {
		CheckUIDUniqueness(ctx context.Context, uid string, excluded ...Employee) error
		CreateEmployee(ctx context.Context, emp Employee) (Employee, error)
		GetEmployeeByID(ctx context.Context, id int) (Employee, error)
		GetEmployeeByUID(ctx context.Context, uid string) (Employee, error)
		// QueryAllEmployees returns all employees; default ordering is by ID.
		QueryAllEmployees(ctx context.Context, orderings ...core.DBOrdering) ([]Employee, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(uid string, excl ...Employee) error {
	if err := svc.repo.CheckUIDUniqueness(context.Background(), uid, excl...); err != nil {
		if errors.Is(err, ErrUIDExists) {
			return core.NewValidationError(err, core.FieldError{Field: "uid", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ne NewEmployee) (Employee, error) {
	now := time.Now().UTC()
	emp := Employee{
		UID:       ne.UID,
		Name:      ne.Name,
		Email:     ne.Email,
		BasePay:   ne.BasePay,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateEmployee(ctx, emp)
}

func (svc *Service) QueryAll(ctx context.Context, orderings ...core.DBOrdering) ([]Employee, error) {
	return svc.repo.QueryAllEmployees(ctx, orderings...)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Employee, error) {
	return svc.repo.GetEmployeeByID(ctx, id)
}

func (svc *Service) GetByUID(ctx context.Context, uid string) (Employee, error) {
	return svc.repo.GetEmployeeByUID(ctx, core.CleanString(uid))
}
