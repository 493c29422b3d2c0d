package migrations

import _ "embed"

//go:embed 2024112202_create_run_reports.sql
var createRunReportsSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createRunReportsSQL),
		execSQL(`DROP TABLE IF EXISTS run_reports`),
	)
}
