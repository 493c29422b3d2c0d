package migrations

import _ "embed"

//go:embed 2024112201_create_question_sets.sql
var createQuestionSetsSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createQuestionSetsSQL),
		execSQL(`DROP TABLE IF EXISTS question_sets`),
	)
}
