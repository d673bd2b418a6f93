package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/go-arrower/productstore/contexts/product/internal/domain"
)

// Dialect covers the differences between the database/sql engines.
type Dialect struct {
	Name              string
	placeholder       squirrel.PlaceholderFormat
	isUniqueViolation func(err error) bool
}

var (
	MySQL = Dialect{ //nolint:gochecknoglobals // read only
		Name:        "mysql",
		placeholder: squirrel.Question,
		isUniqueViolation: func(err error) bool {
			const errDupEntry = 1062

			var myErr *mysql.MySQLError

			return errors.As(err, &myErr) && myErr.Number == errDupEntry
		},
	}

	SQLite = Dialect{ //nolint:gochecknoglobals // read only
		Name:        "sqlite",
		placeholder: squirrel.Question,
		isUniqueViolation: func(err error) bool {
			var liteErr *sqlite.Error

			return errors.As(err, &liteErr) &&
				(liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
		},
	}
)

// NewProductSQLRepository stores products in the `product` table of a database/sql engine.
func NewProductSQLRepository(db *sql.DB, dialect Dialect) (*ProductSQLRepository, error) {
	if db == nil {
		return nil, ErrMissingConnection
	}

	return &ProductSQLRepository{
		db:      db,
		dialect: dialect,
		sb:      squirrel.StatementBuilder.PlaceholderFormat(dialect.placeholder),
	}, nil
}

type ProductSQLRepository struct {
	db      *sql.DB
	dialect Dialect
	sb      squirrel.StatementBuilderType
}

var _ domain.Repository = (*ProductSQLRepository)(nil)

func (repo *ProductSQLRepository) Create(
	ctx context.Context,
	productID domain.ProductID,
	name string,
	weight int,
) (domain.Product, error) {
	query, args, err := repo.sb.Insert(productTable).
		Columns("product_id", "name", "weight").
		Values(int(productID), name, weight).
		ToSql()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: could not build query: %w", domain.ErrPersistenceFailed, err)
	}

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		if repo.dialect.isUniqueViolation(err) {
			return domain.Product{}, domain.DuplicateProduct(productID)
		}

		return domain.Product{}, fmt.Errorf("%w: could not create product: %w", domain.ErrPersistenceFailed, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: could not get id of new product: %w", domain.ErrPersistenceFailed, err)
	}

	return domain.Product{
		ID:        domain.ID(id),
		Version:   0,
		ProductID: productID,
		Name:      name,
		Weight:    weight,
	}, nil
}

func (repo *ProductSQLRepository) FindByProductID(ctx context.Context, productID domain.ProductID) (domain.Product, error) {
	product, err := repo.findOne(ctx, squirrel.Eq{"product_id": int(productID)})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Product{}, domain.ProductNotFound(productID)
	}

	return product, err
}

func (repo *ProductSQLRepository) FindByID(ctx context.Context, id domain.ID) (domain.Product, error) {
	return repo.findOne(ctx, squirrel.Eq{"id": int64(id)})
}

func (repo *ProductSQLRepository) findOne(ctx context.Context, where squirrel.Eq) (domain.Product, error) {
	query, args, err := repo.sb.Select(productColumns...).From(productTable).Where(where).ToSql()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: could not build query: %w", domain.ErrPersistenceFailed, err)
	}

	var row productRow
	if err = sqlscan.Get(ctx, repo.db, &row, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return domain.Product{}, fmt.Errorf("%w: %v", domain.ErrNotFound, where)
		}

		return domain.Product{}, fmt.Errorf("%w: could not get product: %w", domain.ErrPersistenceFailed, err)
	}

	return row.toDomain(), nil
}

func (repo *ProductSQLRepository) All(ctx context.Context) ([]domain.Product, error) {
	query, args, err := repo.sb.Select(productColumns...).From(productTable).OrderBy("product_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: could not build query: %w", domain.ErrPersistenceFailed, err)
	}

	var rows []productRow
	if err = sqlscan.Select(ctx, repo.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%w: could not get products: %w", domain.ErrPersistenceFailed, err)
	}

	return toDomain(rows), nil
}

func (repo *ProductSQLRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := repo.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+productTable).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: could not count products: %w", domain.ErrPersistenceFailed, err)
	}

	return count, nil
}

// Update is a conditional update on the version column.
// MySQL has no RETURNING, so the new version is derived from the matched one.
func (repo *ProductSQLRepository) Update(ctx context.Context, product domain.Product) (int64, error) {
	query, args, err := repo.sb.Update(productTable).
		Set("name", product.Name).
		Set("weight", product.Weight).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": int64(product.ID), "version": product.Version}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: could not build query: %w", domain.ErrPersistenceFailed, err)
	}

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: could not update product: %w", domain.ErrPersistenceFailed, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: could not update product: %w", domain.ErrPersistenceFailed, err)
	}

	if affected == 0 {
		stored, err := repo.FindByID(ctx, product.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ProductNotFound(product.ProductID)
		}

		if err != nil {
			return 0, err
		}

		return 0, domain.StaleProduct(stored.ProductID, product.Version)
	}

	return product.Version + 1, nil
}

func (repo *ProductSQLRepository) Delete(ctx context.Context, productID domain.ProductID) error {
	query, args, err := repo.sb.Delete(productTable).Where(squirrel.Eq{"product_id": int(productID)}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: could not build query: %w", domain.ErrPersistenceFailed, err)
	}

	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: could not delete product: %w", domain.ErrPersistenceFailed, err)
	}

	return nil
}

func (repo *ProductSQLRepository) DeleteAll(ctx context.Context) error {
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM "+productTable); err != nil {
		return fmt.Errorf("%w: could not delete products: %w", domain.ErrPersistenceFailed, err)
	}

	return nil
}
