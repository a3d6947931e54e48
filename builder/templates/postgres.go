package templates

// Postgres renders plpgsql trigger functions executed AFTER each row event.
var Postgres = Set{
	CreateInsert: postgresCreateInsert,
	CreateUpdate: postgresCreateUpdate,
	CreateDelete: postgresCreateDelete,
	Drop:         postgresDrop,
	Copy:         postgresCopy,
	Begin:        "BEGIN ISOLATION LEVEL REPEATABLE READ;\n",
	Lock:         "LOCK TABLE {{ .old_db_table_name }} IN EXCLUSIVE MODE;\n",
	Commit:       "COMMIT;\n",
	Rollback:     "ROLLBACK;\n",
}

const postgresCreateInsert = `CREATE OR REPLACE FUNCTION {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}()
RETURNS TRIGGER AS
$BODY$
BEGIN
    INSERT INTO {{ .new_db_table_name }} (
        {{ join .new_column_names ",\n        " }}
    )
    VALUES (
        {{ join (each "NEW.%s" .new_column_names) ",\n        " }}
    );

    RETURN NEW;
END;
$BODY$
LANGUAGE plpgsql;


CREATE TRIGGER {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}_trigger
  AFTER INSERT
  ON {{ .old_db_table_name }}
  FOR EACH ROW
  EXECUTE PROCEDURE {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}();
`

const postgresCreateUpdate = `CREATE OR REPLACE FUNCTION {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}()
RETURNS TRIGGER AS
$BODY$
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

    RETURN NEW;
END;
$BODY$
LANGUAGE plpgsql;


CREATE TRIGGER {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}_trigger
    AFTER UPDATE
    ON {{ .old_db_table_name }}
    FOR EACH ROW
    EXECUTE PROCEDURE {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}();
`

const postgresCreateDelete = `CREATE OR REPLACE FUNCTION {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}()
RETURNS TRIGGER AS
$BODY$
BEGIN
    DELETE FROM {{ .new_db_table_name }}
    WHERE OLD.{{ .pk_name }} = {{ .pk_name }};

    RETURN OLD;
END;
$BODY$
LANGUAGE plpgsql;


CREATE TRIGGER {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}_trigger
    AFTER DELETE
    ON {{ .old_db_table_name }}
    FOR EACH ROW
    EXECUTE PROCEDURE {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}();
`

const postgresDrop = `DROP TRIGGER IF EXISTS {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}_trigger
     ON {{ .old_db_table_name }};

DROP FUNCTION IF EXISTS {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}();
`

// The SELECT list follows the new table's column order because the insert is positional.
const postgresCopy = `INSERT INTO {{ .new_db_table_name }} (
    SELECT
        {{ join .new_column_names ",\n        " }}
    FROM {{ .old_db_table_name }})
ON CONFLICT ({{ .pk_name }}) DO
{{- with without .new_column_names .pk_name }}
    UPDATE
        SET
            {{ join (each "%[1]s = EXCLUDED.%[1]s" .) ",\n            " }};
{{- else }} NOTHING;
{{- end }}
`
