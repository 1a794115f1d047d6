package repos

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// Seed inserts demo categories, products and accounts into an empty
// database. Safe to run on every start.
func Seed(db *sqlx.DB, bcryptCost int) error {
	if err := seedCatalog(db); err != nil {
		return err
	}
	return seedUsers(db, bcryptCost)
}

func seedCatalog(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	logSeed("inserting demo categories/products")

	type cat struct{ id, name, parent string }
	cats := []cat{
		{"retro-consoles", "Retro Gaming Consoles", ""},
		{"handhelds", "Handheld Consoles", "retro-consoles"},
		{"vintage-radios", "Vintage Radios", ""},
		{"retro-electronics", "Retro Electronics", ""},
	}
	type prod struct {
		id, cat, name, desc, price, sku string
		stock                           int
		image                           string
	}
	prods := []prod{
		{"gbc-001", "handhelds", "Game Boy Color", "Handheld console", "129.99", "GBC-001", 9, "products/gbc-001/main.jpg"},
		{"nes-001", "retro-consoles", "NES Console", "Classic 8-bit console", "199.00", "NES-001", 5, "products/nes-001/main.jpg"},
		{"snes-001", "retro-consoles", "Super Nintendo (SNES) Console", "Classic 16-bit SNES console with controller. Tested and cleaned.", "199.00", "SNES-001", 10, "products/snes-001/main.jpg"},
		{"radio-001", "vintage-radios", "Philco 1939", "Vintage vacuum tube radio", "349.50", "RADIO-001", 2, "products/radio-001/main.jpg"},
		{"radio-zenith-500", "vintage-radios", "Zenith Royal 500 (1960s) Transistor Radio", "Iconic vintage pocket radio. Cosmetic wear; works with 9V battery.", "89.00", "RADIO-Z500", 0, "products/radio-zenith-500/main.jpg"},
		{"walkman-001", "retro-electronics", "Sony Walkman WM-2", "Cassette player, new belts fitted.", "149.00", "WALK-002", 3, ""},
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	for _, c := range cats {
		var parent any
		if c.parent != "" {
			parent = c.parent
		}
		if _, err := tx.Exec(tx.Rebind(`INSERT INTO categories(id,name,parent_id,created_at) VALUES(?,?,?,?)`),
			c.id, c.name, parent, ts); err != nil {
			return err
		}
	}
	for _, p := range prods {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO products(id,category_id,name,description,price,stock,sku,is_active,created_at)
			VALUES(?,?,?,?,?,?,?,?,?)`),
			p.id, p.cat, p.name, p.desc, p.price, p.stock, p.sku, true, ts); err != nil {
			return err
		}
		if p.image != "" {
			if _, err := tx.Exec(tx.Rebind(`
				INSERT INTO product_images(id,product_id,url,sort_order,created_at) VALUES(?,?,?,?,?)`),
				uuid.NewString(), p.id, "/media/"+p.image, 0, ts); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// seedUsers ensures demo customers and one admin exist (idempotent).
func seedUsers(db *sqlx.DB, cost int) error {
	type u struct {
		ID, Email, First, Last, Role, Hash string
	}
	mk := func(id, email, first, last, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), cost)
		return u{ID: id, Email: email, First: first, Last: last, Role: role, Hash: string(h)}
	}

	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	logSeed("inserting demo users")

	users := []u{
		mk("u-alice", "alice@shopfront.test", "Alice", "Liddell", "customer", "Passw0rd!"),
		mk("u-bob", "bob@shopfront.test", "Bob", "Builder", "customer", "Passw0rd!"),
		mk("u-admin", "admin@shopfront.test", "Admin", "User", "admin", "Passw0rd!"),
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	for _, x := range users {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO users(id,email,first_name,last_name,password_hash,role,is_active,created_at)
			VALUES(?,?,?,?,?,?,?,?)
			ON CONFLICT DO NOTHING
		`), x.ID, x.Email, x.First, x.Last, x.Hash, x.Role, true, ts); err != nil {
			return err
		}
	}
	return tx.Commit()
}
