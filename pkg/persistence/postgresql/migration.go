package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Active draft: one row per owner key, JSONB document
			CREATE TABLE drafts (
				key VARCHAR(255) PRIMARY KEY,
				document JSONB NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			-- Save-for-later records: one row per save
			CREATE TABLE saved_drafts (
				key VARCHAR(255) PRIMARY KEY,
				email VARCHAR(255) NOT NULL,
				document JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_saved_drafts_created_at ON saved_drafts(created_at);
		`,
	}
}
