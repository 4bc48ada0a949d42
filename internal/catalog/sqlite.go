package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/emberleaf/storefront/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store serves the embedded retail catalog from SQLite. The data ships with
// the binary via migrations, so the store is read-only at runtime.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at dsn and brings the schema
// and seed data up to date.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open catalog db: %w", err)
	}
	// A second connection to an in-memory DSN would see an empty database.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not load catalog migrations: %w", err)
	}

	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run catalog migrations: %w", err)
	}
	return nil
}

func (s *Store) ListCigars(ctx context.Context, f CigarFilter) (*CigarPage, error) {
	where, args := cigarWhere(f)

	var total int
	countQuery := "SELECT COUNT(*) FROM cigars" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting cigars: %w", err)
	}

	page, perPage := normalizePage(f.Page, f.PerPage)
	query := "SELECT id, name, price, category, origin, strength, length, ring_gauge, rating, description, image FROM cigars" +
		where + orderClause(f.Sort) + " LIMIT ? OFFSET ?"
	args = append(args, perPage, (page-1)*perPage)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing cigars: %w", err)
	}
	defer rows.Close()

	items := make([]Cigar, 0, perPage)
	for rows.Next() {
		var c Cigar
		var rating sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.Name, &c.Price, &c.Category, &c.Origin, &c.Strength,
			&c.Length, &c.RingGauge, &rating, &c.Description, &c.Image); err != nil {
			return nil, fmt.Errorf("scanning cigar: %w", err)
		}
		if rating.Valid {
			c.Rating = &rating.Float64
		}
		c.Ref = domain.NewItemRef(domain.KindCigar, c.ID)
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing cigars: %w", err)
	}

	return &CigarPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages(total, perPage),
	}, nil
}

func (s *Store) GetCigar(ctx context.Context, id int64) (*Cigar, error) {
	var c Cigar
	var rating sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, price, category, origin, strength, length, ring_gauge, rating, description, image FROM cigars WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Name, &c.Price, &c.Category, &c.Origin, &c.Strength,
		&c.Length, &c.RingGauge, &rating, &c.Description, &c.Image)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading cigar %d: %w", id, err)
	}
	if rating.Valid {
		c.Rating = &rating.Float64
	}
	c.Ref = domain.NewItemRef(domain.KindCigar, c.ID)
	return &c, nil
}

func (s *Store) ListAccessories(ctx context.Context, f AccessoryFilter) (*AccessoryPage, error) {
	var where string
	var args []interface{}
	if f.Category != "" && f.Category != "all" {
		where = " WHERE category = ?"
		args = append(args, f.Category)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accessories"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting accessories: %w", err)
	}

	page, perPage := normalizePage(f.Page, f.PerPage)
	query := "SELECT id, name, price, category, description, image FROM accessories" +
		where + orderClause(f.Sort) + " LIMIT ? OFFSET ?"
	args = append(args, perPage, (page-1)*perPage)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing accessories: %w", err)
	}
	defer rows.Close()

	items := make([]Accessory, 0, perPage)
	for rows.Next() {
		var a Accessory
		if err := rows.Scan(&a.ID, &a.Name, &a.Price, &a.Category, &a.Description, &a.Image); err != nil {
			return nil, fmt.Errorf("scanning accessory: %w", err)
		}
		a.Ref = domain.NewItemRef(domain.KindAccessory, a.ID)
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing accessories: %w", err)
	}

	return &AccessoryPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages(total, perPage),
	}, nil
}

func (s *Store) GetAccessory(ctx context.Context, id int64) (*Accessory, error) {
	var a Accessory
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, price, category, description, image FROM accessories WHERE id = ?", id,
	).Scan(&a.ID, &a.Name, &a.Price, &a.Category, &a.Description, &a.Image)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading accessory %d: %w", id, err)
	}
	a.Ref = domain.NewItemRef(domain.KindAccessory, a.ID)
	return &a, nil
}

// ResolveLine looks up a namespaced reference in the owning catalog and
// returns its cart representation with quantity unset.
func (s *Store) ResolveLine(ctx context.Context, ref domain.ItemRef) (*domain.CartLine, error) {
	kind, id, err := ref.Parse()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	switch kind {
	case domain.KindCigar:
		c, err := s.GetCigar(ctx, id)
		if err != nil {
			return nil, err
		}
		line := c.CartLine()
		return &line, nil
	case domain.KindAccessory:
		a, err := s.GetAccessory(ctx, id)
		if err != nil {
			return nil, err
		}
		line := a.CartLine()
		return &line, nil
	}
	return nil, ErrNotFound
}

func cigarWhere(f CigarFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if f.Search != "" {
		clauses = append(clauses, "lower(name) LIKE '%' || lower(?) || '%'")
		args = append(args, f.Search)
	}
	if f.Category != "" && f.Category != "all" {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}
	if f.Origin != "" && f.Origin != "all" {
		clauses = append(clauses, "origin = ?")
		args = append(args, f.Origin)
	}
	if f.Strength != "" && f.Strength != "all" {
		clauses = append(clauses, "strength = ?")
		args = append(args, f.Strength)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderClause(sortBy string) string {
	switch sortBy {
	case SortPriceLow:
		return " ORDER BY price ASC, id ASC"
	case SortPriceHigh:
		return " ORDER BY price DESC, id ASC"
	case SortName:
		return " ORDER BY name COLLATE NOCASE ASC, id ASC"
	default:
		return " ORDER BY id ASC"
	}
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return page, perPage
}

func totalPages(total, perPage int) int {
	if total == 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
