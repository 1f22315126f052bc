package bridge_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vexdb/jdbc-bridge/bridge"
	"github.com/vexdb/jdbc-bridge/driver"
	"github.com/vexdb/jdbc-bridge/drivertest"
	jerrors "github.com/vexdb/jdbc-bridge/errors"
	"github.com/vexdb/jdbc-bridge/runtime"
	"github.com/vexdb/jdbc-bridge/sqltype"
)

func readyManager(t *testing.T, drv *drivertest.Driver) *runtime.Manager {
	t.Helper()

	mgr := runtime.NewManager(nil)
	launcher := &drivertest.Launcher{Host: drivertest.NewHost(drv)}
	if err := mgr.Start(context.Background(), runtime.Options{Launcher: launcher}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })
	return mgr
}

func open(t *testing.T, mgr *runtime.Manager, driverID string) *bridge.Connection {
	t.Helper()

	c, err := bridge.Open(context.Background(), mgr, driverID, "jdbc:test://db", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func TestOpen_RuntimeNotReady(t *testing.T) {
	mgr := runtime.NewManager(nil)

	_, err := bridge.Open(context.Background(), mgr, "pg", "jdbc:test://db", nil)
	if !errors.Is(err, jerrors.ErrRuntimeNotReady) {
		t.Errorf("Open before Start err = %v, want runtime-not-ready", err)
	}
}

func TestOpen_DriverNotFound(t *testing.T) {
	mgr := readyManager(t, drivertest.NewDriver("pg"))

	_, err := bridge.Open(context.Background(), mgr, "oracle", "jdbc:test://db", nil)
	if !errors.Is(err, jerrors.ErrDriverNotFound) {
		t.Errorf("unknown driver err = %v, want driver-not-found", err)
	}
}

func TestOpen_AuthFailure(t *testing.T) {
	drv := drivertest.NewDriver("pg")
	drv.ConnectExc = &jerrors.ForeignException{
		Class:    "java.sql.SQLInvalidAuthorizationSpecException",
		Message:  "password authentication failed",
		SQLState: "28P01",
	}
	mgr := readyManager(t, drv)

	_, err := bridge.Open(context.Background(), mgr, "pg", "jdbc:test://db",
		map[string]string{"user": "app", "password": "wrong"})
	if !errors.Is(err, &jerrors.Error{Kind: jerrors.KindConnection}) {
		t.Errorf("auth failure err = %v, want connection error", err)
	}
}

func TestOpen_UnreachableHostTimeout(t *testing.T) {
	drv := drivertest.NewDriver("pg")
	drv.ConnectHang = true
	mgr := readyManager(t, drv)

	start := time.Now()
	_, err := bridge.Open(context.Background(), mgr, "pg", "jdbc:test://unreachable",
		map[string]string{"loginTimeout": "2"})
	elapsed := time.Since(start)

	if !errors.Is(err, &jerrors.Error{Kind: jerrors.KindConnection}) {
		t.Errorf("timed-out open err = %v, want connection error", err)
	}
	if elapsed < 2*time.Second || elapsed > 3*time.Second {
		t.Errorf("open returned after %v, want the 2s login timeout", elapsed)
	}
}

func TestCursor_QueryRoundTrip(t *testing.T) {
	ctx := context.Background()
	drv := drivertest.NewDriver("pg")
	drv.Script("SELECT id, name FROM users").Returns(
		[]sqltype.Descriptor{
			{Name: "id", TypeCode: sqltype.BigInt, TypeName: "BIGINT"},
			{Name: "name", TypeCode: sqltype.VarChar, TypeName: "VARCHAR", Nullable: true},
		},
		[]driver.Datum{drivertest.Int(1), drivertest.Text("ada")},
	)

	mgr := readyManager(t, drv)
	conn := open(t, mgr, "pg")
	cur := conn.Cursor()

	if err := cur.Execute(ctx, "SELECT id, name FROM users"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	desc := cur.Description()
	if len(desc) != 2 || desc[0].Name != "id" || desc[1].Name != "name" {
		t.Fatalf("Description = %+v", desc)
	}
	if got := cur.RowCount(); got != -1 {
		t.Errorf("RowCount for query = %d, want -1", got)
	}

	row, ok, err := cur.FetchOne(ctx)
	if err != nil || !ok {
		t.Fatalf("FetchOne: ok=%v err=%v", ok, err)
	}
	want := []sqltype.Value{sqltype.IntValue(1), sqltype.TextValue("ada")}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}

	if _, ok, err := cur.FetchOne(ctx); err != nil || ok {
		t.Errorf("FetchOne past end: ok=%v err=%v, want exhausted", ok, err)
	}
}

func TestCursor_FetchBatches(t *testing.T) {
	ctx := context.Background()
	drv := drivertest.NewDriver("pg")
	cols := []sqltype.Descriptor{{Name: "n", TypeCode: sqltype.BigInt, TypeName: "BIGINT"}}
	drv.Script("SELECT n FROM seq").Returns(cols,
		[]driver.Datum{drivertest.Int(1)},
		[]driver.Datum{drivertest.Int(2)},
		[]driver.Datum{drivertest.Int(3)},
		[]driver.Datum{drivertest.Int(4)},
		[]driver.Datum{drivertest.Int(5)},
	)

	mgr := readyManager(t, drv)
	cur := open(t, mgr, "pg").Cursor()
	if err := cur.Execute(ctx, "SELECT n FROM seq"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	first, err := cur.FetchMany(ctx, 2)
	if err != nil || len(first) != 2 {
		t.Fatalf("FetchMany(2) = %d rows, err %v", len(first), err)
	}
	rest, err := cur.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(rest) != 3 || rest[2][0].Int != 5 {
		t.Errorf("FetchAll after FetchMany = %v, want remaining 3 rows ending in 5", rest)
	}

	// The cursor is single-pass: draining again yields nothing.
	again, err := cur.FetchAll(ctx)
	if err != nil || len(again) != 0 {
		t.Errorf("second FetchAll = %d rows, err %v; result is not restartable", len(again), err)
	}
}

func TestCursor_FetchWithoutExecute(t *testing.T) {
	mgr := readyManager(t, drivertest.NewDriver("pg"))
	cur := open(t, mgr, "pg").Cursor()

	_, _, err := cur.FetchOne(context.Background())
	if !errors.Is(err, jerrors.ErrNoResult) {
		t.Errorf("fetch before execute err = %v, want no-result", err)
	}
}

func TestCursor_UpdateRowCount(t *testing.T) {
	ctx := context.Background()
	drv := drivertest.NewDriver("pg")
	drv.Script("DELETE FROM logs").Updates(42)

	mgr := readyManager(t, drv)
	cur := open(t, mgr, "pg").Cursor()
	if err := cur.Execute(ctx, "DELETE FROM logs"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if got := cur.RowCount(); got != 42 {
		t.Errorf("RowCount = %d, want 42", got)
	}
	if desc := cur.Description(); desc != nil {
		t.Errorf("Description for update = %+v, want nil", desc)
	}
	if _, _, err := cur.FetchOne(ctx); !errors.Is(err, jerrors.ErrNoResult) {
		t.Errorf("fetch after update err = %v, want no-result", err)
	}
}

func TestCursor_ParamEncoding(t *testing.T) {
	ctx := context.Background()
	drv := drivertest.NewDriver("pg")
	script := drv.Script("INSERT INTO t VALUES (?, ?)").
		WithParams(sqltype.SmallInt, sqltype.VarChar).
		Updates(1)

	mgr := readyManager(t, drv)
	cur := open(t, mgr, "pg").Cursor()

	err := cur.Execute(ctx, "INSERT INTO t VALUES (?, ?)",
		sqltype.IntValue(7), sqltype.TextValue("x"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got := script.Received()
	if len(got) != 1 || len(got[0]) != 2 {
		t.Fatalf("driver received %v", got)
	}
	// The hint narrows the encoding to the statement's parameter type.
	if got[0][0].SQLType != sqltype.SmallInt {
		t.Errorf("param 0 encoded as %s, want SMALLINT", got[0][0].SQLType)
	}

	// A value outside the hinted width never reaches the driver.
	err = cur.Execute(ctx, "INSERT INTO t VALUES (?, ?)",
		sqltype.IntValue(1<<20), sqltype.TextValue("x"))
	if !errors.Is(err, jerrors.ErrValueRange) {
		t.Errorf("overflow err = %v, want value-range", err)
	}
	if n := len(script.Received()); n != 1 {
		t.Errorf("driver received %d sets after failed encode, want 1", n)
	}
}

func TestExecuteMany_FailFast(t *testing.T) {
	ctx := context.Background()
	drv := drivertest.NewDriver("pg")
	script := drv.Script("INSERT INTO t VALUES (?)").
		WithParams(sqltype.Integer).
		Updates(1)

	mgr := readyManager(t, drv)
	cur := open(t, mgr, "pg").Cursor()

	// Five sets; set 2 is malformed (wrong arity).
	sets := [][]sqltype.Value{
		{sqltype.IntValue(0)},
		{sqltype.IntValue(1)},
		{sqltype.IntValue(2), sqltype.IntValue(99)},
		{sqltype.IntValue(3)},
		{sqltype.IntValue(4)},
	}

	err := cur.ExecuteMany(ctx, "INSERT INTO t VALUES (?)", sets)
	var batchErr *jerrors.BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("ExecuteMany err = %v, want *BatchError", err)
	}
	if batchErr.FailedIndex != 2 {
		t.Errorf("FailedIndex = %d, want 2", batchErr.FailedIndex)
	}
	// Nothing was submitted: the batch aborted before execution.
	if got := script.Received(); len(got) != 0 {
		t.Errorf("driver executed %d sets from an aborted batch, want 0", len(got))
	}
	if runs := script.BatchRuns(); runs != 0 {
		t.Errorf("batch submitted %d times, want 0", runs)
	}
}

func TestExecuteMany_RowLevelFailure(t *testing.T) {
	ctx := context.Background()
	drv := drivertest.NewDriver("pg")
	script := drv.Script("INSERT INTO t VALUES (?)").
		WithParams(sqltype.Integer).
		Updates(1).
		FailsBatchAt(2, &jerrors.ForeignException{
			Class:    "java.sql.SQLIntegrityConstraintViolationException",
			Message:  "duplicate key",
			SQLState: "23505",
		})

	mgr := readyManager(t, drv)
	cur := open(t, mgr, "pg").Cursor()

	sets := [][]sqltype.Value{
		{sqltype.IntValue(0)}, {sqltype.IntValue(1)}, {sqltype.IntValue(2)},
		{sqltype.IntValue(3)}, {sqltype.IntValue(4)},
	}
	err := cur.ExecuteMany(ctx, "INSERT INTO t VALUES (?)", sets)

	var batchErr *jerrors.BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("ExecuteMany err = %v, want *BatchError", err)
	}
	if batchErr.FailedIndex != 2 {
		t.Errorf("FailedIndex = %d, want 2", batchErr.FailedIndex)
	}
	if len(batchErr.Partial) != 2 {
		t.Errorf("Partial = %v, want the 2 counts completed before the failure", batchErr.Partial)
	}
	if !errors.Is(err, &jerrors.Error{Kind: jerrors.KindIntegrity}) {
		t.Errorf("cause = %v, want integrity error", batchErr.Cause)
	}
	// Sets past the failing index never executed.
	if got := script.Received(); len(got) != 2 {
		t.Errorf("driver executed %d sets, want 2", len(got))
	}
}

func TestExecuteMany_Success(t *testing.T) {
	ctx := context.Background()
	drv := drivertest.NewDriver("pg")
	drv.Script("INSERT INTO t VALUES (?)").WithParams(sqltype.Integer).Updates(1)

	mgr := readyManager(t, drv)
	cur := open(t, mgr, "pg").Cursor()

	sets := [][]sqltype.Value{
		{sqltype.IntValue(1)}, {sqltype.IntValue(2)}, {sqltype.IntValue(3)},
	}
	if err := cur.ExecuteMany(ctx, "INSERT INTO t VALUES (?)", sets); err != nil {
		t.Fatalf("ExecuteMany: %v", err)
	}
	if got := cur.RowCount(); got != 3 {
		t.Errorf("RowCount = %d, want 3", got)
	}
}

func TestCursor_ClosedMidIteration(t *testing.T) {
	ctx := context.Background()
	drv := drivertest.NewDriver("pg")
	cols := []sqltype.Descriptor{{Name: "n", TypeCode: sqltype.BigInt, TypeName: "BIGINT"}}
	drv.Script("SELECT n FROM seq").Returns(cols,
		[]driver.Datum{drivertest.Int(1)},
		[]driver.Datum{drivertest.Int(2)},
	)

	mgr := readyManager(t, drv)
	cur := open(t, mgr, "pg").Cursor()
	if err := cur.Execute(ctx, "SELECT n FROM seq"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, _, err := cur.FetchOne(ctx); err != nil {
		t.Fatalf("FetchOne: %v", err)
	}

	if err := cur.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := cur.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	_, _, err := cur.FetchOne(ctx)
	if !errors.Is(err, jerrors.ErrCursorClosed) {
		t.Errorf("fetch after close err = %v, want cursor-closed", err)
	}
	if err := cur.Execute(ctx, "SELECT n FROM seq"); !errors.Is(err, jerrors.ErrCursorClosed) {
		t.Errorf("execute after close err = %v, want cursor-closed", err)
	}
}

func TestCursor_SyntaxError(t *testing.T) {
	mgr := readyManager(t, drivertest.NewDriver("pg"))
	cur := open(t, mgr, "pg").Cursor()

	err := cur.Execute(context.Background(), "SELEC oops")
	if !errors.Is(err, &jerrors.Error{Kind: jerrors.KindProgramming}) {
		t.Errorf("bad SQL err = %v, want programming error", err)
	}
}

func TestConnection_Transactions(t *testing.T) {
	ctx := context.Background()
	drv := drivertest.NewDriver("pg")
	mgr := readyManager(t, drv)
	conn := open(t, mgr, "pg")

	if err := conn.SetAutoCommit(ctx, false); err != nil {
		t.Fatalf("SetAutoCommit: %v", err)
	}
	on, err := conn.AutoCommit(ctx)
	if err != nil || on {
		t.Errorf("AutoCommit = %v, %v; want false", on, err)
	}
	if err := conn.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := conn.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	fc := drv.LastConn()
	if fc.Commits() != 1 || fc.Rollbacks() != 1 {
		t.Errorf("foreign side saw %d commits, %d rollbacks; want 1 and 1",
			fc.Commits(), fc.Rollbacks())
	}

	if err := conn.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for _, op := range []func() error{
		func() error { return conn.Commit(ctx) },
		func() error { return conn.Rollback(ctx) },
		func() error { return conn.SetAutoCommit(ctx, true) },
	} {
		if err := op(); !errors.Is(err, jerrors.ErrTransactionState) {
			t.Errorf("transaction op on closed connection err = %v, want transaction-state", err)
		}
	}
}

func TestConnection_PingPredicate(t *testing.T) {
	ctx := context.Background()
	drv := drivertest.NewDriver("pg")
	mgr := readyManager(t, drv)
	conn := open(t, mgr, "pg")

	if !conn.Ping(ctx) {
		t.Error("Ping on a live connection = false")
	}

	drv.LastConn().PingExc = &jerrors.ForeignException{
		Class:    "java.sql.SQLTransientConnectionException",
		Message:  "connection dropped",
		SQLState: "08006",
	}
	if conn.Ping(ctx) {
		t.Error("Ping on a broken connection = true")
	}

	drv.LastConn().PingExc = nil
	_ = conn.Close(ctx)
	if conn.Ping(ctx) {
		t.Error("Ping on a closed connection = true")
	}
}

func TestConnection_CloseReleasesCursors(t *testing.T) {
	ctx := context.Background()
	drv := drivertest.NewDriver("pg")
	drv.Script("SELECT 1").Returns(
		[]sqltype.Descriptor{{Name: "one", TypeCode: sqltype.Integer, TypeName: "INTEGER"}},
		[]driver.Datum{drivertest.Int(1)},
	)
	mgr := readyManager(t, drv)
	conn := open(t, mgr, "pg")

	cur := conn.Cursor()
	if err := cur.Execute(ctx, "SELECT 1"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if err := conn.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := conn.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if !drv.LastConn().Closed() {
		t.Error("foreign connection not released")
	}
	if _, _, err := cur.FetchOne(ctx); !errors.Is(err, jerrors.ErrCursorClosed) {
		t.Errorf("fetch on cursor of closed connection err = %v, want cursor-closed", err)
	}
}
