package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/go-arrower/productstore/contexts/product/internal/domain"
)

var ErrMissingConnection = errors.New("missing db connection")

const (
	productTable = "product"

	// pgUniqueViolation is the SQLSTATE postgres reports for a violated unique index.
	pgUniqueViolation = "23505"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar) //nolint:gochecknoglobals // squirrel recommends this

var productColumns = []string{"id", "version", "product_id", "name", "weight"} //nolint:gochecknoglobals // read only

// productRow is the representation of a product in all sql databases.
type productRow struct {
	ID        int64  `db:"id"`
	Version   int64  `db:"version"`
	ProductID int    `db:"product_id"`
	Name      string `db:"name"`
	Weight    int    `db:"weight"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:        domain.ID(r.ID),
		Version:   r.Version,
		ProductID: domain.ProductID(r.ProductID),
		Name:      r.Name,
		Weight:    r.Weight,
	}
}

func toDomain(rows []productRow) []domain.Product {
	products := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, r.toDomain())
	}

	return products
}

// NewProductPostgresRepository stores products in the `product` table.
// Optimistic locking is a conditional update on the version column,
// uniqueness of the product id is enforced by the index product_unique_idx.
func NewProductPostgresRepository(pgx *pgxpool.Pool) (*ProductPostgresRepository, error) {
	if pgx == nil {
		return nil, ErrMissingConnection
	}

	return &ProductPostgresRepository{db: pgx}, nil
}

type ProductPostgresRepository struct {
	db *pgxpool.Pool
}

var _ domain.Repository = (*ProductPostgresRepository)(nil)

func (repo *ProductPostgresRepository) Create(
	ctx context.Context,
	productID domain.ProductID,
	name string,
	weight int,
) (domain.Product, error) {
	query, args, err := psql.Insert(productTable).
		Columns("product_id", "name", "weight").
		Values(int(productID), name, weight).
		Suffix("RETURNING id, version, product_id, name, weight").
		ToSql()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: could not build query: %w", domain.ErrPersistenceFailed, err)
	}

	var row productRow
	if err = pgxscan.Get(ctx, repo.db, &row, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.Product{}, domain.DuplicateProduct(productID)
		}

		return domain.Product{}, fmt.Errorf("%w: could not create product: %w", domain.ErrPersistenceFailed, err)
	}

	return row.toDomain(), nil
}

func (repo *ProductPostgresRepository) FindByProductID(
	ctx context.Context,
	productID domain.ProductID,
) (domain.Product, error) {
	product, err := repo.findOne(ctx, squirrel.Eq{"product_id": int(productID)})
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Product{}, domain.ProductNotFound(productID)
	}

	return product, err
}

func (repo *ProductPostgresRepository) FindByID(ctx context.Context, id domain.ID) (domain.Product, error) {
	return repo.findOne(ctx, squirrel.Eq{"id": int64(id)})
}

func (repo *ProductPostgresRepository) findOne(ctx context.Context, where squirrel.Eq) (domain.Product, error) {
	query, args, err := psql.Select(productColumns...).From(productTable).Where(where).ToSql()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: could not build query: %w", domain.ErrPersistenceFailed, err)
	}

	var row productRow
	if err = pgxscan.Get(ctx, repo.db, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return domain.Product{}, fmt.Errorf("%w: %v", domain.ErrNotFound, where)
		}

		return domain.Product{}, fmt.Errorf("%w: could not get product: %w", domain.ErrPersistenceFailed, err)
	}

	return row.toDomain(), nil
}

func (repo *ProductPostgresRepository) All(ctx context.Context) ([]domain.Product, error) {
	query, args, err := psql.Select(productColumns...).From(productTable).OrderBy("product_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: could not build query: %w", domain.ErrPersistenceFailed, err)
	}

	var rows []productRow
	if err = pgxscan.Select(ctx, repo.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%w: could not get products: %w", domain.ErrPersistenceFailed, err)
	}

	return toDomain(rows), nil
}

func (repo *ProductPostgresRepository) Count(ctx context.Context) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From(productTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: could not build query: %w", domain.ErrPersistenceFailed, err)
	}

	var count int
	if err = repo.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: could not count products: %w", domain.ErrPersistenceFailed, err)
	}

	return count, nil
}

func (repo *ProductPostgresRepository) Update(ctx context.Context, product domain.Product) (int64, error) {
	query, args, err := psql.Update(productTable).
		Set("name", product.Name).
		Set("weight", product.Weight).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": int64(product.ID), "version": product.Version}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: could not build query: %w", domain.ErrPersistenceFailed, err)
	}

	var version int64

	err = repo.db.QueryRow(ctx, query, args...).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, repo.classifyRejectedUpdate(ctx, product)
	}

	if err != nil {
		return 0, fmt.Errorf("%w: could not update product: %w", domain.ErrPersistenceFailed, err)
	}

	return version, nil
}

// classifyRejectedUpdate is called after the conditional update matched no row.
// The decision is already made, this only finds the reason for the caller.
func (repo *ProductPostgresRepository) classifyRejectedUpdate(ctx context.Context, product domain.Product) error {
	stored, err := repo.FindByID(ctx, product.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ProductNotFound(product.ProductID)
	}

	if err != nil {
		return err
	}

	return domain.StaleProduct(stored.ProductID, product.Version)
}

func (repo *ProductPostgresRepository) Delete(ctx context.Context, productID domain.ProductID) error {
	query, args, err := psql.Delete(productTable).Where(squirrel.Eq{"product_id": int(productID)}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: could not build query: %w", domain.ErrPersistenceFailed, err)
	}

	if _, err = repo.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: could not delete product: %w", domain.ErrPersistenceFailed, err)
	}

	return nil
}

func (repo *ProductPostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := repo.db.Exec(ctx, "DELETE FROM "+productTable); err != nil {
		return fmt.Errorf("%w: could not delete products: %w", domain.ErrPersistenceFailed, err)
	}

	return nil
}
