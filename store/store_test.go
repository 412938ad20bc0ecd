package store

import (
	"os"
	"testing"

	"github.com/invertedv/stover"
	"github.com/stretchr/testify/assert"
)

// environment variables:
//   - host: ClickHouse IP address
//   - user: ClickHouse user
//   - password: ClickHouse password

func chDialect(t *testing.T) *Dialect {
	t.Helper()

	host := os.Getenv("host")
	if host == "" {
		t.Skip("no ClickHouse host configured")
	}

	db, e := ConnectCH(host, os.Getenv("user"), os.Getenv("password"))
	if e != nil {
		t.Fatalf("connect: %v", e)
	}

	d, e1 := NewDialect(CH, db)
	if e1 != nil {
		t.Fatalf("dialect: %v", e1)
	}

	return d
}

func resultFrame() *stover.Frame {
	fips, _ := stover.NewCol("fips", []string{"19001", "17001"})
	trt, _ := stover.NewCol("stover_removal", []string{"G", "G25S"})
	yld, _ := stover.NewCol("stover_yield_Mg_ha-1", []float64{0, 3.2})

	fr, e := stover.NewFrame(fips, trt, yld)
	if e != nil {
		panic(e)
	}

	return fr
}

func TestNewDialect(t *testing.T) {
	_, e := NewDialect("mysql", nil)
	assert.NotNil(t, e)
}

func TestDialect_Save(t *testing.T) {
	const table = "testing.stover_results"

	d := chDialect(t)
	defer func() { _ = d.Close() }()

	fr := resultFrame()
	assert.Nil(t, d.Save(table, "fips", true, fr))
	assert.True(t, d.Exists(table))

	// no overwrite: second save must fail
	assert.NotNil(t, d.Save(table, "fips", false, fr))

	assert.Nil(t, d.DropTable(table))
	assert.False(t, d.Exists(table))
}
