package repos

import (
	"strings"

	"handmade/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, email, display_name, phone, password_hash, role, COALESCE(created_at,'') AS created_at`

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(u domain.User) error {
	_, err := r.DB.Exec(`
		INSERT INTO users(id,email,display_name,phone,password_hash,role,created_at)
		VALUES(?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, u.ID, u.Email, u.DisplayName, u.Phone, u.Hash, u.Role)
	return err
}

func (r *UserRepo) BindSession(sid, userID string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
      SELECT u.id,u.email,u.display_name,u.phone,u.password_hash,u.role,COALESCE(u.created_at,'') AS created_at
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}

func customerWhere(search string) (string, []any) {
	where := `role = 'customer'`
	args := []any{}
	if term := strings.ToLower(strings.TrimSpace(search)); term != "" {
		where += ` AND (INSTR(LOWER(display_name), ?) > 0 OR INSTR(LOWER(email), ?) > 0)`
		args = append(args, term, term)
	}
	return where, args
}

// Customers lists role=customer accounts whose name or email contains search.
func (r *UserRepo) Customers(search string, limit, offset int) ([]domain.User, error) {
	where, args := customerWhere(search)
	args = append(args, limit, offset)
	out := []domain.User{}
	err := r.DB.Select(&out, `SELECT `+userCols+` FROM users WHERE `+where+`
		ORDER BY LOWER(display_name), email
		LIMIT ? OFFSET ?`, args...)
	return out, err
}

func (r *UserRepo) CountCustomers(search string) (int, error) {
	where, args := customerWhere(search)
	var n int
	err := r.DB.Get(&n, `SELECT COUNT(*) FROM users WHERE `+where, args...)
	return n, err
}

// RoleCounts counts live accounts per role; vendor tombstones are skipped.
func (r *UserRepo) RoleCounts() (map[string]int, error) {
	var rows []struct {
		Role string `db:"role"`
		N    int    `db:"n"`
	}
	if err := r.DB.Select(&rows, `SELECT role, COUNT(*) AS n FROM users
		WHERE email NOT LIKE 'deleted+%@invalid' GROUP BY role`); err != nil {
		return nil, err
	}
	out := map[string]int{}
	for _, row := range rows {
		out[row.Role] = row.N
	}
	return out, nil
}

// DeleteUserCascade removes the account and its sessions, cart lines and favorites,
// returning reserved cart quantities to stock, cancelling open orders (rows are kept
// for audit) and taking a vendor's products off the catalog.
func (r *UserRepo) DeleteUserCascade(userID string) error {
	tx, err := r.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var lines []struct {
		ProductID string `db:"product_id"`
		Quantity  int    `db:"quantity"`
	}
	if err := tx.Select(&lines, `SELECT product_id, quantity FROM cart_items WHERE user_id=?`, userID); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := tx.Exec(`UPDATE products SET stock = stock + ? WHERE id = ?`, l.Quantity, l.ProductID); err != nil {
			return err
		}
	}

	stmts := []string{
		`UPDATE orders SET status='CANCELED' WHERE user_id=? AND status='PLACED'`,
		`DELETE FROM cart_items WHERE user_id=?`,
		`DELETE FROM favorites WHERE user_id=?`,
		`DELETE FROM sessions WHERE user_id=?`,
		`UPDATE products SET status='rejected', updated_at=CURRENT_TIMESTAMP WHERE vendor_id=?`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s, userID); err != nil {
			return err
		}
	}

	// Products reference their vendor, so a vendor with listings stays as a
	// tombstone row: credentials are scrubbed instead of deleting it.
	var owned int
	if err := tx.Get(&owned, `SELECT COUNT(*) FROM products WHERE vendor_id=?`, userID); err != nil {
		return err
	}
	if owned > 0 {
		if _, err := tx.Exec(`UPDATE users SET email = 'deleted+' || id || '@invalid', password_hash = '!', phone = '' WHERE id=?`, userID); err != nil {
			return err
		}
	} else if _, err := tx.Exec(`DELETE FROM users WHERE id=?`, userID); err != nil {
		return err
	}

	return tx.Commit()
}
