package unitconv

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSource is a Source backed by a local SQLite database. It owns the
// schema for units, conversions and products and doubles as the product
// lookup for the rpc layer.
type SQLiteSource struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	s := &SQLiteSource{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteSource wraps an already opened database handle.
func NewSQLiteSource(db *sql.DB) (*SQLiteSource, error) {
	s := &SQLiteSource{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS units (
			unit_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			form_id INTEGER,
			product_id INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS unit_conversions (
			from_unit_id INTEGER NOT NULL,
			to_unit_id INTEGER NOT NULL,
			factor REAL NOT NULL,
			product_id INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS products (
			product_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			form_id INTEGER,
			amount_unit_id INTEGER NOT NULL,
			dose_unit_id INTEGER
		);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteSource) SelectUnits(ctx context.Context, f UnitFilter) ([]Unit, error) {
	query := `SELECT unit_id, name, form_id, product_id FROM units`
	var args []any
	switch {
	case f.UnitID != nil:
		query += ` WHERE unit_id = ?`
		args = append(args, *f.UnitID)
	case f.ProductID != nil:
		query += ` WHERE product_id = ?`
		args = append(args, *f.ProductID)
	default:
		query += ` WHERE product_id IS NULL`
	}
	query += ` ORDER BY unit_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Unit
	for rows.Next() {
		var u Unit
		var formID, productID sql.NullInt64
		if err := rows.Scan(&u.UnitID, &u.Name, &formID, &productID); err != nil {
			return nil, err
		}
		if formID.Valid {
			v := formID.Int64
			u.FormID = &v
		}
		if productID.Valid {
			v := productID.Int64
			u.ProductID = &v
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLiteSource) SelectDirectConversions(ctx context.Context, productID *int64) ([]UnitConversion, error) {
	// rowid order keeps first-match precedence equal to insert order
	query := `SELECT from_unit_id, to_unit_id, factor, product_id FROM unit_conversions`
	var args []any
	if productID != nil {
		query += ` WHERE product_id = ?`
		args = append(args, *productID)
	} else {
		query += ` WHERE product_id IS NULL`
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UnitConversion
	for rows.Next() {
		var c UnitConversion
		var pid sql.NullInt64
		if err := rows.Scan(&c.FromUnitID, &c.ToUnitID, &c.Factor, &pid); err != nil {
			return nil, err
		}
		if pid.Valid {
			v := pid.Int64
			c.ProductID = &v
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteSource) AddUnit(ctx context.Context, u Unit) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO units (unit_id, name, form_id, product_id) VALUES (?, ?, ?, ?)`,
		u.UnitID, u.Name, nullableID(u.FormID), nullableID(u.ProductID))
	return err
}

func (s *SQLiteSource) AddConversion(ctx context.Context, c UnitConversion) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO unit_conversions (from_unit_id, to_unit_id, factor, product_id) VALUES (?, ?, ?, ?)`,
		c.FromUnitID, c.ToUnitID, c.Factor, nullableID(c.ProductID))
	return err
}

func (s *SQLiteSource) AddProduct(ctx context.Context, p Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (product_id, name, form_id, amount_unit_id, dose_unit_id) VALUES (?, ?, ?, ?, ?)`,
		p.ProductID, p.Name, nullableID(p.FormID), p.AmountUnitID, nullableID(p.DoseUnitID))
	return err
}

// GetProduct returns the product with the given id, nil when absent.
func (s *SQLiteSource) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT product_id, name, form_id, amount_unit_id, dose_unit_id FROM products WHERE product_id = ?`,
		productID)
	var p Product
	var formID, doseUnitID sql.NullInt64
	err := row.Scan(&p.ProductID, &p.Name, &formID, &p.AmountUnitID, &doseUnitID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if formID.Valid {
		v := formID.Int64
		p.FormID = &v
	}
	if doseUnitID.Valid {
		v := doseUnitID.Int64
		p.DoseUnitID = &v
	}
	return &p, nil
}

func nullableID(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
