package database

// Schema, applied in order by Init.
const (
	CreateProductsTable = `CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		sku TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		brand TEXT NOT NULL DEFAULT '',
		tags TEXT[] NOT NULL DEFAULT '{}',
		price NUMERIC NOT NULL CHECK (price >= 0),
		stock INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		visibility TEXT NOT NULL DEFAULT 'public',
		featured BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

	CreateCartsTable = `CREATE TABLE IF NOT EXISTS carts (
		user_id TEXT PRIMARY KEY,
		revision BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

	CreateCartItemsTable = `CREATE TABLE IF NOT EXISTS cart_items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES carts(user_id) ON DELETE CASCADE,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		base_price NUMERIC NOT NULL CHECK (base_price >= 0),
		added_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, product_id)
	)`

	CreateProductsCreatedIndex = `CREATE INDEX IF NOT EXISTS products_created_idx ON products (created_at, (id COLLATE "C"))`
	CreateProductsUpdatedIndex = `CREATE INDEX IF NOT EXISTS products_updated_idx ON products (updated_at, (id COLLATE "C"))`
	CreateProductsNameIndex    = `CREATE INDEX IF NOT EXISTS products_name_idx ON products ((name COLLATE "C"), (id COLLATE "C"))`
	CreateProductsPriceIndex   = `CREATE INDEX IF NOT EXISTS products_price_idx ON products (price, (id COLLATE "C"))`

	CreateCartItemsIndex = `CREATE INDEX IF NOT EXISTS cart_items_user_idx ON cart_items (user_id, added_at)`

	// Prices keep the scale they were written with; tables created with a
	// fixed scale are widened.
	WidenProductsPrice  = `ALTER TABLE products ALTER COLUMN price TYPE NUMERIC`
	WidenCartItemsPrice = `ALTER TABLE cart_items ALTER COLUMN base_price TYPE NUMERIC`
)

var schema = []string{
	CreateProductsTable,
	CreateCartsTable,
	CreateCartItemsTable,
	CreateProductsCreatedIndex,
	CreateProductsUpdatedIndex,
	CreateProductsNameIndex,
	CreateProductsPriceIndex,
	CreateCartItemsIndex,
	WidenProductsPrice,
	WidenCartItemsPrice,
}

const (
	selectProductColumns = `id, sku, name, description, category, brand, tags, price::text, stock,
		status, visibility, featured, created_at, updated_at`

	upsertProduct = `INSERT INTO products (id, sku, name, description, category, brand, tags, price,
		stock, status, visibility, featured, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (id) DO UPDATE SET
		  sku=EXCLUDED.sku, name=EXCLUDED.name, description=EXCLUDED.description,
		  category=EXCLUDED.category, brand=EXCLUDED.brand, tags=EXCLUDED.tags, price=EXCLUDED.price,
		  stock=EXCLUDED.stock, status=EXCLUDED.status, visibility=EXCLUDED.visibility,
		  featured=EXCLUDED.featured, updated_at=EXCLUDED.updated_at`

	// bumpCartRevision also creates the cart and locks its row for the
	// rest of the transaction, which serializes writes per user.
	bumpCartRevision = `INSERT INTO carts (user_id, revision, updated_at) VALUES ($1, 1, $2)
		ON CONFLICT (user_id) DO UPDATE SET revision = carts.revision + 1, updated_at = EXCLUDED.updated_at
		RETURNING revision`

	insertCartItem = `INSERT INTO cart_items (id, user_id, product_id, quantity, base_price, added_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		ON CONFLICT (user_id, product_id) DO UPDATE SET
		  quantity = cart_items.quantity + EXCLUDED.quantity,
		  base_price = EXCLUDED.base_price`

	updateCartItemQuantity = `UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND id = $2`
	deleteCartItem         = `DELETE FROM cart_items WHERE user_id = $1 AND id = $2`
	deleteCartItems        = `DELETE FROM cart_items WHERE user_id = $1`

	selectCart      = `SELECT revision, updated_at FROM carts WHERE user_id = $1`
	selectCartItems = `SELECT id, product_id, quantity, base_price::text, added_at
		FROM cart_items WHERE user_id = $1 ORDER BY added_at, id`
)
