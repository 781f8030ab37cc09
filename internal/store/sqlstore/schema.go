package sqlstore

import "strings"

const schemaVersion = 1

const nowExpr = `(strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))`

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS "AFFILIATE_OFFERS" (
	id INTEGER PRIMARY KEY,
	created_at TEXT DEFAULT ` + nowExpr + `,
	affiliate_offer_1 TEXT,
	affiliate_offer_2 TEXT,
	affiliate_offer_3 TEXT,
	affiliate_offer_4 TEXT,
	affiliate_offer_5 TEXT,
	affiliate_offer_6 TEXT,
	affiliate_offer_7 TEXT,
	affiliate_offer_8 TEXT
);

CREATE TABLE IF NOT EXISTS "Links" (
	id INTEGER PRIMARY KEY,
	"Link_P" TEXT
);

CREATE TABLE IF NOT EXISTS "BlogData" (
	id INTEGER PRIMARY KEY,
	created_at TEXT NOT NULL DEFAULT ` + nowExpr + `,
	domain TEXT,
	website_context TEXT,
	content_structure TEXT,
	affiliate_partner_link TEXT,
	product_promotion TEXT
);

CREATE TABLE IF NOT EXISTS product_upload (
	id INTEGER PRIMARY KEY,
	created_at TEXT DEFAULT ` + nowExpr + `,
	layout_type TEXT,
	product_name TEXT,
	mini_blog TEXT,
	image_urls TEXT
);
`

const postTableSQL = `
CREATE TABLE IF NOT EXISTS "{{table}}" (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT ` + nowExpr + `,
	updated_at TEXT NOT NULL DEFAULT ` + nowExpr + `
);
`

func postTableDDL(table string) string {
	return strings.ReplaceAll(postTableSQL, "{{table}}", table)
}
