package employees

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Employee, int, error)
	Get(ctx context.Context, id int64) (Employee, error)
	Create(ctx context.Context, employee Employee) (Employee, error)
	Update(ctx context.Context, id int64, employee Employee) error
	SetPINHash(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const employeeColumns = `id, name, COALESCE(phone, ''), store_id, COALESCE(pin_hash, ''), is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Employee, int, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		query += ` AND name ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.StoreID != nil {
		argCount++
		query += ` AND store_id = $` + strconv.Itoa(argCount)
		args = append(args, *filters.StoreID)
	}

	countQuery := `SELECT COUNT(*) FROM employees WHERE 1=1`
	countArgs := []interface{}{}
	if filters.Search != "" {
		countArgs = append(countArgs, "%"+filters.Search+"%")
		countQuery += ` AND name ILIKE $` + strconv.Itoa(len(countArgs))
	}
	if filters.StoreID != nil {
		countArgs = append(countArgs, *filters.StoreID)
		countQuery += ` AND store_id = $` + strconv.Itoa(len(countArgs))
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if filters.SortDir == "desc" {
		dir = "DESC"
	}
	query += ` ORDER BY name ` + dir

	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Phone, &e.StoreID, &e.PINHash, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, e)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Employee, error) {
	var e Employee
	err := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id).
		Scan(&e.ID, &e.Name, &e.Phone, &e.StoreID, &e.PINHash, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, fmt.Errorf("employee %d: %w", id, shared.ErrNotFound)
		}
		return Employee{}, err
	}
	return e, nil
}

func (r *repository) Create(ctx context.Context, employee Employee) (Employee, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO employees (name, phone, store_id, pin_hash, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING id`,
		employee.Name, employee.Phone, employee.StoreID, employee.PINHash, employee.IsActive).Scan(&employee.ID)
	if err != nil {
		return Employee{}, err
	}
	return employee, nil
}

func (r *repository) Update(ctx context.Context, id int64, employee Employee) error {
	tag, err := r.pool.Exec(ctx, `UPDATE employees SET name = $1, phone = $2, store_id = $3, is_active = $4, updated_at = NOW() WHERE id = $5`,
		employee.Name, employee.Phone, employee.StoreID, employee.IsActive, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("employee %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) SetPINHash(ctx context.Context, id int64, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE employees SET pin_hash = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("employee %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("employee %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
