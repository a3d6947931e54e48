package templates

// MySQL triggers take a single statement body, so no function is created.
// DDL commits implicitly in MySQL: the explicit transaction only guards the
// data copy, and the table locks are held until UNLOCK TABLES at commit.
var MySQL = Set{
	CreateInsert: mysqlCreateInsert,
	CreateUpdate: mysqlCreateUpdate,
	CreateDelete: mysqlCreateDelete,
	Drop:         mysqlDrop,
	Copy:         mysqlCopy,
	Begin:        "SET TRANSACTION ISOLATION LEVEL REPEATABLE READ;\nSET autocommit = 0;\n",
	Lock:         "LOCK TABLES {{ .old_db_table_name }} WRITE, {{ .new_db_table_name }} WRITE;\n",
	Commit:       "COMMIT;\nUNLOCK TABLES;\nSET autocommit = 1;\n",
	Rollback:     "ROLLBACK;\nUNLOCK TABLES;\nSET autocommit = 1;\n",
}

const mysqlCreateInsert = `CREATE TRIGGER {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}_trigger
    AFTER INSERT
    ON {{ .old_db_table_name }}
    FOR EACH ROW
    INSERT INTO {{ .new_db_table_name }} (
        {{ join .new_column_names ",\n        " }}
    )
    VALUES (
        {{ join (each "NEW.%s" .new_column_names) ",\n        " }}
    );
`

const mysqlCreateUpdate = `CREATE TRIGGER {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}_trigger
    AFTER UPDATE
    ON {{ .old_db_table_name }}
    FOR EACH ROW
    UPDATE {{ .new_db_table_name }}
    SET
{{- with without .new_column_names .pk_name }}
        {{ join (each "%[1]s = NEW.%[1]s" .) ",\n        " }}
    WHERE {{ $.pk_name }} = NEW.{{ $.pk_name }};
{{- else }}
        {{ .pk_name }} = NEW.{{ .pk_name }}
    WHERE {{ .pk_name }} = OLD.{{ .pk_name }};
{{- end }}
`

const mysqlCreateDelete = `CREATE TRIGGER {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}_trigger
    AFTER DELETE
    ON {{ .old_db_table_name }}
    FOR EACH ROW
    DELETE FROM {{ .new_db_table_name }}
    WHERE OLD.{{ .pk_name }} = {{ .pk_name }};
`

const mysqlDrop = `DROP TRIGGER IF EXISTS {{ .old_db_table_name }}_to_{{ .new_db_table_name }}_{{ .event }}_trigger;
`

// VALUES() is kept over the row alias syntax for MariaDB compatibility.
const mysqlCopy = `INSERT INTO {{ .new_db_table_name }} (
    {{ join .new_column_names ",\n    " }}
)
SELECT
    {{ join .new_column_names ",\n    " }}
FROM {{ .old_db_table_name }}
ON DUPLICATE KEY UPDATE
{{- with without .new_column_names .pk_name }}
    {{ join (each "%[1]s = VALUES(%[1]s)" .) ",\n    " }};
{{- else }}
    {{ .pk_name }} = {{ .pk_name }};
{{- end }}
`
