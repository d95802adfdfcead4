package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/profiteer-io/profiteer-api/models"
)

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

func testObservations(n int, soldDate *time.Time) []models.PriceObservation {
	obs := make([]models.PriceObservation, 0, n)
	for i := 0; i < n; i++ {
		obs = append(obs, models.PriceObservation{
			Marketplace: "ebay",
			Price:       dec(fmt.Sprintf("%d.99", 10+i)),
			Condition:   "new",
			SoldDate:    soldDate,
		})
	}
	return obs
}

func TestBuildObservationInsertPlaceholders(t *testing.T) {
	soldDate := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	query, args := buildObservationInsert("item-1", testObservations(3, &soldDate))

	if len(args) != 15 {
		t.Fatalf("got %d args, want 15 (5 per row)", len(args))
	}

	wantRows := []string{
		"($1,$2,$3,NULLIF($4,''),$5)",
		"($6,$7,$8,NULLIF($9,''),$10)",
		"($11,$12,$13,NULLIF($14,''),$15)",
	}
	for _, row := range wantRows {
		if !strings.Contains(query, row) {
			t.Errorf("query missing row %s:\n%s", row, query)
		}
	}

	assertPlaceholdersMatchArgs(t, query, len(args))

	// item_id repeats at the head of every row's argument group.
	for _, i := range []int{0, 5, 10} {
		if args[i] != "item-1" {
			t.Errorf("args[%d] = %v, want item-1", i, args[i])
		}
	}
}

func TestAppendObservationsBatches(t *testing.T) {
	log := &execCapture{}
	sql.Register("price-tracker-capture", &captureDriver{log: log})
	db, err := sql.Open("price-tracker-capture", "")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	tracker := NewPriceTracker(db)

	if err := tracker.AppendObservations(context.Background(), "item-1", testObservations(120, nil)); err != nil {
		t.Fatal(err)
	}

	calls := log.snapshot()
	if len(calls) != 3 {
		t.Fatalf("got %d insert statements for 120 observations, want 3 (batches of 50)", len(calls))
	}
	wantArgs := []int{250, 250, 100}
	for i, call := range calls {
		if call.args != wantArgs[i] {
			t.Errorf("batch %d bound %d args, want %d", i, call.args, wantArgs[i])
		}
		assertPlaceholdersMatchArgs(t, call.query, call.args)
	}
}

// assertPlaceholdersMatchArgs checks that the statement's placeholders are
// exactly $1..$n with no reuse, where n is the bound argument count.
func assertPlaceholdersMatchArgs(t *testing.T, query string, argCount int) {
	t.Helper()

	seen := make(map[int]int)
	max := 0
	for _, m := range placeholderRe.FindAllStringSubmatch(query, -1) {
		n, _ := strconv.Atoi(m[1])
		seen[n]++
		if n > max {
			max = n
		}
	}

	if max != argCount {
		t.Errorf("highest placeholder is $%d but %d args are bound", max, argCount)
	}
	if len(seen) != argCount {
		t.Errorf("%d distinct placeholders for %d args", len(seen), argCount)
	}
	for n, count := range seen {
		if count > 1 {
			t.Errorf("placeholder $%d appears %d times", n, count)
		}
	}
}

// Minimal capturing SQL driver: records each ExecContext statement and its
// bound argument count.

type capturedExec struct {
	query string
	args  int
}

type execCapture struct {
	mu    sync.Mutex
	calls []capturedExec
}

func (l *execCapture) record(query string, args int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, capturedExec{query: query, args: args})
}

func (l *execCapture) snapshot() []capturedExec {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]capturedExec(nil), l.calls...)
}

type captureDriver struct {
	log *execCapture
}

func (d *captureDriver) Open(string) (driver.Conn, error) {
	return &captureConn{log: d.log}, nil
}

type captureConn struct {
	log *execCapture
}

func (c *captureConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements not supported")
}

func (c *captureConn) Close() error { return nil }

func (c *captureConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *captureConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.log.record(query, len(args))
	return driver.RowsAffected(int64(len(args) / 5)), nil
}
