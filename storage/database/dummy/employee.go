package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/employee"
)

type employeeRepository struct {
	db *employeeTable
}

var _ employee.Repository = (*employeeRepository)(nil) // interface compliance check

func NewEmployeeRepository(db *DB) employee.Repository {
	return &employeeRepository{db: db.employee}
}

func (repo *employeeRepository) CheckUIDUniqueness(_ context.Context, uid string, excluded ...employee.Employee) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, emp := range repo.db.table {
		if emp.UID == uid && !isExcluded(*emp, excluded) {
			return employee.ErrUIDExists
		}
	}
	return nil
}

func isExcluded(emp employee.Employee, excluded []employee.Employee) bool {
	for _, excl := range excluded {
		if emp.ID == excl.ID {
			return true
		}
	}
	return false
}

func (repo *employeeRepository) CreateEmployee(_ context.Context, emp employee.Employee) (employee.Employee, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	emp.ID = repo.db.pkCount
	repo.db.table[emp.ID] = &emp
	return emp, nil
}

func (repo *employeeRepository) GetEmployeeByID(_ context.Context, id int) (employee.Employee, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if emp, ok := repo.db.table[id]; ok {
		return *emp, nil
	}
	return employee.Employee{}, employee.ErrNotFound
}

func (repo *employeeRepository) GetEmployeeByUID(_ context.Context, uid string) (employee.Employee, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, emp := range repo.db.table {
		if emp.UID == uid {
			return *emp, nil
		}
	}
	return employee.Employee{}, employee.ErrNotFound
}

func (repo *employeeRepository) QueryAllEmployees(_ context.Context, orderings ...core.DBOrdering) ([]employee.Employee, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	emps := make([]employee.Employee, 0, len(repo.db.table))
	for _, emp := range repo.db.table {
		emps = append(emps, *emp)
	}
	sort.Slice(emps, func(i, j int) bool { return emps[i].ID < emps[j].ID })

	// apply the first supported ordering only; good enough for tests
	for _, ord := range orderings {
		less := employeeLessFunc(emps, ord)
		if less == nil {
			continue
		}
		if !ord.Ascending {
			asc := less
			less = func(i, j int) bool { return asc(j, i) }
		}
		sort.SliceStable(emps, less)
		break
	}
	return emps, nil
}

func employeeLessFunc(emps []employee.Employee, ord core.DBOrdering) func(i, j int) bool {
	switch ord.Field {
	case "id":
		return func(i, j int) bool { return emps[i].ID < emps[j].ID }
	case "uid":
		return func(i, j int) bool { return emps[i].UID < emps[j].UID }
	case "name":
		return func(i, j int) bool { return emps[i].Name < emps[j].Name }
	case "basePay":
		return func(i, j int) bool { return emps[i].BasePay < emps[j].BasePay }
	case "createdAt":
		return func(i, j int) bool { return emps[i].CreatedAt.Before(emps[j].CreatedAt) }
	}
	return nil
}
