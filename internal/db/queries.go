package db

const (
	jobColumns = `id, owner_id, document_name, pages, copies, color, duplex, stapling, priority, notes, status, cost, release_token, submitted_at, released_at, completed_at, cancelled_at, printer_id, released_by`

	InsertJob = `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	GetJobByID = `
		SELECT ` + jobColumns + `
		FROM jobs WHERE id = ?
	`

	UpdateJob = `
		UPDATE jobs SET
			status = ?, released_at = ?, completed_at = ?, cancelled_at = ?,
			printer_id = ?, released_by = ?
		WHERE id = ?
	`

	DeleteJob = `DELETE FROM jobs WHERE id = ?`

	CountJobsByStatus = `
		SELECT status, COUNT(*), COALESCE(SUM(cost), 0) FROM jobs GROUP BY status
	`
)

const (
	InsertPrinter = `
		INSERT INTO printers (id, name, location, model, status, ip, capabilities_json, department)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	GetPrinterByID = `
		SELECT id, name, location, model, status, ip, capabilities_json, department, created_at, updated_at
		FROM printers WHERE id = ?
	`

	ListPrinters = `
		SELECT id, name, location, model, status, ip, capabilities_json, department, created_at, updated_at
		FROM printers ORDER BY name ASC
	`

	UpdatePrinterStatus = `
		UPDATE printers SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`

	DeletePrinter = `DELETE FROM printers WHERE id = ?`
)

const (
	InsertWebhook = `
		INSERT INTO webhooks (name, url, secret, events_json, enabled)
		VALUES (?, ?, ?, ?, ?)
	`

	GetWebhookByID = `
		SELECT id, name, url, secret, events_json, enabled, created_at
		FROM webhooks WHERE id = ?
	`

	ListWebhooks = `
		SELECT id, name, url, secret, events_json, enabled, created_at
		FROM webhooks ORDER BY name ASC
	`

	ListWebhooksForEvent = `
		SELECT id, name, url, secret, events_json, enabled, created_at
		FROM webhooks WHERE enabled = 1 AND events_json LIKE ?
	`

	UpdateWebhook = `
		UPDATE webhooks SET name = ?, url = ?, secret = ?, events_json = ?, enabled = ? WHERE id = ?
	`

	DeleteWebhook = `DELETE FROM webhooks WHERE id = ?`
)

const (
	GetSetting = `SELECT value, encrypted FROM settings WHERE key = ?`

	SetSetting = `
		INSERT INTO settings (key, value, encrypted, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = ?, encrypted = ?, updated_at = CURRENT_TIMESTAMP
	`

	DeleteSetting = `DELETE FROM settings WHERE key = ?`
)
