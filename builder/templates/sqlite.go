package templates

// SQLite has no table locks or isolation levels. BEGIN EXCLUSIVE takes the
// database write lock for the whole transaction instead.
var SQLite = Set{
	CreateInsert: sqliteCreateInsert,
	CreateUpdate: sqliteCreateUpdate,
	CreateDelete: sqliteCreateDelete,
	Drop:         sqliteDrop,
	Copy:         sqliteCopy,
	Begin:        "BEGIN EXCLUSIVE;\n",
	Lock:         "",
	Commit:       "COMMIT;\n",
	Rollback:     "ROLLBACK;\n",
}

const sqliteCreateInsert = `CREATE TRIGGER {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}_trigger
    AFTER INSERT
    ON {{ .old_db_table_name }}
    FOR EACH ROW
BEGIN
    INSERT INTO {{ .new_db_table_name }} (
        {{ join .new_column_names ",\n        " }}
    )
    VALUES (
        {{ join (each "NEW.%s" .new_column_names) ",\n        " }}
    );
END;
`

const sqliteCreateUpdate = `CREATE TRIGGER {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}_trigger
    AFTER UPDATE
    ON {{ .old_db_table_name }}
    FOR EACH ROW
BEGIN
    UPDATE {{ .new_db_table_name }}
    SET
{{- with without .new_column_names .pk_name }}
        {{ join (each "%[1]s = NEW.%[1]s" .) ",\n        " }}
    WHERE {{ $.pk_name }} = NEW.{{ $.pk_name }};
{{- else }}
        {{ .pk_name }} = NEW.{{ .pk_name }}
    WHERE {{ .pk_name }} = OLD.{{ .pk_name }};
{{- end }}
END;
`

const sqliteCreateDelete = `CREATE TRIGGER {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}_trigger
    AFTER DELETE
    ON {{ .old_db_table_name }}
    FOR EACH ROW
BEGIN
    DELETE FROM {{ .new_db_table_name }}
    WHERE OLD.{{ .pk_name }} = {{ .pk_name }};
END;
`

const sqliteDrop = `DROP TRIGGER IF EXISTS {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}_trigger;
`

// WHERE true resolves the parsing ambiguity between a SELECT join clause and ON CONFLICT.
const sqliteCopy = `INSERT INTO {{ .new_db_table_name }} (
    {{ join .new_column_names ",\n    " }}
)
SELECT
    {{ join .new_column_names ",\n    " }}
FROM {{ .old_db_table_name }}
WHERE true
ON CONFLICT ({{ .pk_name }}) DO
{{- with without .new_column_names .pk_name }}
    UPDATE
        SET
            {{ join (each "%[1]s = excluded.%[1]s" .) ",\n            " }};
{{- else }} NOTHING;
{{- end }}
`
