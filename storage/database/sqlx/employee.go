package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/employee"
)

type employeeRepository struct {
	db *sqlx.DB
}

var _ employee.Repository = (*employeeRepository)(nil) // interface compliance check

func NewEmployeeRepository(db *sqlx.DB) employee.Repository {
	return &employeeRepository{db: db}
}

func (repo *employeeRepository) CheckUIDUniqueness(ctx context.Context, uid string, excluded ...employee.Employee) error {
	exclIDs := make([]int, 0, len(excluded))
	for _, emp := range excluded {
		exclIDs = append(exclIDs, emp.ID)
	}

	query := `SELECT EXISTS(SELECT 1 FROM employee WHERE uid = ?)`
	args := []interface{}{uid}
	if len(exclIDs) > 0 {
		var err error
		query = `SELECT EXISTS(SELECT 1 FROM employee WHERE uid = ? AND id NOT IN (?))`
		query, args, err = sqlx.In(query, uid, exclIDs)
		if err != nil {
			return errors.Wrap(err, "checking uid uniqueness")
		}
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking uid uniqueness")
	}
	if exists {
		return employee.ErrUIDExists
	}
	return nil
}

func (repo *employeeRepository) CreateEmployee(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	err := repo.db.GetContext(ctx, &emp,
		`INSERT INTO employee (uid, name, email, base_pay, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING *`,
		emp.UID, emp.Name, emp.Email, emp.BasePay, emp.IsActive, emp.CreatedAt, emp.UpdatedAt,
	)
	if err != nil {
		return employee.Employee{}, errors.Wrap(err, "creating employee")
	}
	return emp, nil
}

func (repo *employeeRepository) GetEmployeeByID(ctx context.Context, id int) (employee.Employee, error) {
	var emp employee.Employee
	err := repo.db.GetContext(ctx, &emp, `SELECT * FROM employee WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return employee.Employee{}, employee.ErrNotFound
		}
		return employee.Employee{}, errors.Wrap(err, "getting employee")
	}
	return emp, nil
}

func (repo *employeeRepository) GetEmployeeByUID(ctx context.Context, uid string) (employee.Employee, error) {
	var emp employee.Employee
	err := repo.db.GetContext(ctx, &emp, `SELECT * FROM employee WHERE uid = $1`, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return employee.Employee{}, employee.ErrNotFound
		}
		return employee.Employee{}, errors.Wrap(err, "getting employee by uid")
	}
	return emp, nil
}

// employeeOrderingColumns whitelists the orderable API fields.
var employeeOrderingColumns = map[string]string{
	"id":        "id",
	"uid":       "uid",
	"name":      "name",
	"basePay":   "base_pay",
	"createdAt": "created_at",
}

func (repo *employeeRepository) QueryAllEmployees(ctx context.Context, orderings ...core.DBOrdering) ([]employee.Employee, error) {
	orderBy := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		col, ok := employeeOrderingColumns[ord.Field]
		if !ok {
			continue
		}
		ord.Field = col
		orderBy = append(orderBy, ord.String())
	}
	if len(orderBy) == 0 {
		orderBy = append(orderBy, "id ASC")
	}

	emps := make([]employee.Employee, 0)
	query := `SELECT * FROM employee ORDER BY ` + strings.Join(orderBy, ", ")
	if err := repo.db.SelectContext(ctx, &emps, query); err != nil {
		return nil, errors.Wrap(err, "querying employees")
	}
	return emps, nil
}
