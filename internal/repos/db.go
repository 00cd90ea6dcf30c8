package repos

import (
	"embed"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	applog "handmade/internal/log"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SeedPassword is the password every seeded account is created with.
const SeedPassword = "Passw0rd!"

// OpenDB opens the SQLite database, applies pending migrations and seeds demo data.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := Connect(dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := Seed(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Connect opens the database without touching the schema.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// One connection: ":memory:" databases are per-connection and SQLite
	// serialises writers anyway.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping sqlite")
	}
	return db, nil
}

func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Migrate applies every embedded up migration that has not run yet.
func Migrate(db *sqlx.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "load migrations")
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return errors.Wrap(err, "migration driver")
	}
	// m.Close would close db as well, so the instance is left to the GC.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return errors.Wrap(err, "migrate init")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migrate up")
	}
	return nil
}

// Seed inserts demo categories, accounts, products and feedback. Idempotent.
func Seed(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	applog.Logger().Info().Msg("seeding demo categories, users, products and feedback")

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO categories(id,name) VALUES
	  ('pottery','Pottery'),
	  ('jewelry','Jewelry'),
	  ('textiles','Textiles'),
	  ('woodwork','Woodwork')
	  ON CONFLICT(id) DO NOTHING`); err != nil {
		return err
	}

	users := []struct{ ID, Email, Name, Phone, Role string }{
		{"u-admin", "admin@handmade.test", "Admin", "", "admin"},
		{"u-nour", "nour@handmade.test", "Nour Crafts", "+20 100 000 0001", "vendor"},
		{"u-omar", "omar@handmade.test", "Omar Woodshop", "+20 100 000 0002", "vendor"},
		{"u-alice", "alice@handmade.test", "Alice", "+20 100 000 0003", "customer"},
		{"u-bob", "bob@handmade.test", "Bob", "", "customer"},
		{"u-carol", "carol@handmade.test", "Carol", "+20 100 000 0005", "customer"},
	}
	for _, u := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,display_name,phone,password_hash,role)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, u.ID, u.Email, u.Name, u.Phone, string(hash), u.Role); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`INSERT INTO products(id,vendor_id,category_id,title,description,price,stock,img_url,status) VALUES
	  ('p-vase','u-nour','pottery','Blue Glazed Vase','Wheel-thrown stoneware vase',450,6,'/media/p-vase.jpg','approved'),
	  ('p-mug','u-nour','pottery','Speckled Mug','Hand-painted mug, 350ml',120,2,'/media/p-mug.jpg','approved'),
	  ('p-ring','u-nour','jewelry','Silver Leaf Ring','Sterling silver, size adjustable',300,0,'/media/p-ring.jpg','approved'),
	  ('p-bowl','u-omar','woodwork','Olive Wood Bowl','Carved from a single block',380,8,'/media/p-bowl.jpg','approved'),
	  ('p-scarf','u-omar','textiles','Handwoven Scarf','Cotton and linen blend',210,4,'/media/p-scarf.jpg','pending')
	  ON CONFLICT(id) DO NOTHING`); err != nil {
		return err
	}

	if _, err := tx.Exec(`INSERT INTO feedbacks(id,product_id,user_id,rating,comment) VALUES
	  ('f-1','p-vase','u-alice',5,'Beautiful glaze'),
	  ('f-2','p-vase','u-bob',4,'Arrived safely'),
	  ('f-3','p-vase','u-carol',0,'When will the green one be back?'),
	  ('f-4','p-bowl','u-alice',3,'Smaller than expected')
	  ON CONFLICT(id) DO NOTHING`); err != nil {
		return err
	}

	return tx.Commit()
}

// WithTx runs fn inside a transaction, committing only when fn returns nil.
func WithTx(db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.Beginx()
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
