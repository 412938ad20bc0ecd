// Package store persists result frames to a database. ClickHouse and
// Postgres are supported; the Dialect wraps an externally opened *sql.DB and
// owns only the DDL/insert differences between the two.
package store

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/invertedv/stover"
	_ "github.com/jackc/pgx/stdlib" // registers the pgx database/sql driver
)

const (
	CH = "clickhouse"
	PG = "postgres"
)

type Dialect struct {
	db      *sql.DB
	dialect string

	bufSize int // insert buffer, in MB
}

func NewDialect(dialect string, db *sql.DB) (*Dialect, error) {
	dialect = strings.ToLower(dialect)

	if dialect != CH && dialect != PG {
		return nil, fmt.Errorf("unsupported db dialect %s", dialect)
	}

	return &Dialect{db: db, dialect: dialect, bufSize: 64}, nil
}

// ConnectCH opens a ClickHouse connection. host is an IP address or name
// (assumes port 9000).
func ConnectCH(host, user, password string) (*sql.DB, error) {
	db := clickhouse.OpenDB(
		&clickhouse.Options{
			Addr: []string{host + ":9000"},
			Auth: clickhouse.Auth{
				Database: "default",
				Username: user,
				Password: password,
			},
			DialTimeout: 300 * time.Second,
			Compression: &clickhouse.Compression{
				Method: clickhouse.CompressionLZ4,
				Level:  0,
			},
		})

	return db, db.Ping()
}

// ConnectPG opens a Postgres connection from a DSN via the pgx stdlib driver.
func ConnectPG(dsn string) (*sql.DB, error) {
	db, e := sql.Open("pgx", dsn)
	if e != nil {
		return nil, e
	}

	return db, db.Ping()
}

func (d *Dialect) DB() *sql.DB {
	return d.db
}

func (d *Dialect) DialectName() string {
	return d.dialect
}

func (d *Dialect) Close() error {
	return d.db.Close()
}

func (d *Dialect) SetBufSize(mb int) {
	d.bufSize = mb
}

func (d *Dialect) Exists(tableName string) bool {
	var (
		res *sql.Rows
		e   error
	)

	if d.dialect == CH {
		qry := fmt.Sprintf("EXISTS TABLE %s", tableName)

		if res, e = d.db.Query(qry); e != nil {
			panic(e)
		}

		defer func() { _ = res.Close() }()

		var exist uint8
		res.Next()
		if ex := res.Scan(&exist); ex != nil {
			panic(ex)
		}

		return exist == 1
	}

	qry := fmt.Sprintf("SELECT to_regclass('%s')", tableName)
	if res, e = d.db.Query(qry); e != nil {
		panic(e)
	}

	defer func() { _ = res.Close() }()

	res.Next()
	var exist any
	if ex := res.Scan(&exist); ex != nil {
		panic(ex)
	}

	return exist != nil
}

func (d *Dialect) DropTable(tableName string) error {
	if !d.Exists(tableName) {
		return nil
	}

	_, e := d.db.Exec(fmt.Sprintf("DROP TABLE %s", tableName))

	return e
}

// Create builds the table from the frame's column names and types. orderBy
// defaults to the first column (ClickHouse requires one for MergeTree).
func (d *Dialect) Create(tableName, orderBy string, fr *stover.Frame) error {
	if orderBy == "" {
		orderBy = fr.ColumnNames()[0]
	}

	var flds []string
	for c := fr.Next(true); c != nil; c = fr.Next(false) {
		dbType, e := d.dbtype(c.DataType())
		if e != nil {
			return e
		}

		flds = append(flds, fmt.Sprintf("%s %s", quoteField(c.Name("")), dbType))
	}

	var create string
	switch d.dialect {
	case CH:
		create = fmt.Sprintf("CREATE TABLE %s (%s) ENGINE = MergeTree ORDER BY %s",
			tableName, strings.Join(flds, ","), quoteField(orderBy))
	case PG:
		create = fmt.Sprintf("CREATE TABLE %s (%s)", tableName, strings.Join(flds, ","))
	}

	_, e := d.db.Exec(create)

	return e
}

// InsertValues appends a "(v,...),(v,...)" values block to the table.
func (d *Dialect) InsertValues(tableName string, values []byte) error {
	qry := fmt.Sprintf("INSERT INTO %s VALUES ", tableName) + string(values)
	_, e := d.db.Exec(qry)

	return e
}

// Save writes the frame to tableName, creating (or with overwrite, replacing)
// it and inserting all rows in buffered batches.
func (d *Dialect) Save(tableName, orderBy string, overwrite bool, fr *stover.Frame) error {
	exists := d.Exists(tableName)
	if exists && !overwrite {
		return fmt.Errorf("table %s exists", tableName)
	}

	if exists {
		if e := d.DropTable(tableName); e != nil {
			return e
		}
	}

	if e := d.Create(tableName, orderBy, fr); e != nil {
		return e
	}

	return d.iterSave(tableName, fr)
}

func (d *Dialect) iterSave(tableName string, fr *stover.Frame) error {
	const (
		bSep   = byte(',')
		bOpen  = byte('(')
		bClose = byte(')')
	)

	var buffer []byte
	bsize := d.bufSize * 1024 * 1024

	for row := 0; row < fr.RowCount(); row++ {
		if buffer != nil {
			buffer = append(buffer, bSep)
		}

		buffer = append(buffer, bOpen)
		vals := fr.Row(row)
		for ind := 0; ind < len(vals); ind++ {
			buffer = append(append(buffer, []byte(d.toString(vals[ind]))...), bSep)
		}

		buffer[len(buffer)-1] = bClose

		if bsize > 0 && len(buffer) >= bsize {
			if e := d.InsertValues(tableName, buffer); e != nil {
				return e
			}
			buffer = nil
		}
	}

	if buffer != nil {
		if e := d.InsertValues(tableName, buffer); e != nil {
			return e
		}
	}

	return nil
}

// toString returns a string version of val that can be placed into SQL.
func (d *Dialect) toString(val any) string {
	switch x := val.(type) {
	case float64:
		if math.IsNaN(x) {
			if d.dialect == CH {
				return "nan"
			}

			return "'NaN'"
		}

		return fmt.Sprintf("%v", x)
	case int:
		return fmt.Sprintf("%d", x)
	case string:
		return fmt.Sprintf("'%s'", strings.ReplaceAll(x, "'", "''"))
	default:
		panic(fmt.Errorf("unsupported data type in store.Save"))
	}
}

func (d *Dialect) dbtype(dt stover.DataTypes) (string, error) {
	switch d.dialect {
	case CH:
		switch dt {
		case stover.DTfloat:
			return "Float64", nil
		case stover.DTint:
			return "Int64", nil
		case stover.DTstring:
			return "String", nil
		}
	case PG:
		switch dt {
		case stover.DTfloat:
			return "double precision", nil
		case stover.DTint:
			return "bigint", nil
		case stover.DTstring:
			return "text", nil
		}
	}

	return "", fmt.Errorf("cannot map type %s to DB type", dt)
}

// quoteField wraps column names that carry unit punctuation (e.g.
// corn_yield_Mg_ha-1) so both databases accept them.
func quoteField(name string) string {
	return `"` + name + `"`
}
