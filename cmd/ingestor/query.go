package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/pumpfun-analytics/ingestor/internal/events"
	"github.com/pumpfun-analytics/ingestor/internal/parquetio"
	"github.com/pumpfun-analytics/ingestor/internal/store"
)

const (
	defaultLiveFlushInterval = 100 * time.Millisecond
	defaultSummaryInterval   = 10 * time.Second
)

func nowFn() time.Time {
	return time.Now().UTC()
}

func truncateToDay() time.Time {
	return nowFn().Truncate(24 * time.Hour)
}

// eventKindForTable resolves a config's [table_event_mappings] entry to
// one of the eight known event kinds. When no explicit mapping is given it
// falls back to the first known kind contained in the table's name (the
// common case, since default table names already carry the kind in their
// name); "amm_create_pool" is tested before "create" so that it wins.
func eventKindForTable(table string, mappings map[string]string) string {
	if kind, ok := mappings[table]; ok {
		return kind
	}
	for _, kind := range []string{"trade", "amm_create_pool", "create", "migrate", "amm_buy", "amm_sell", "amm_deposit", "amm_withdraw"} {
		if strings.Contains(table, kind) {
			return kind
		}
	}
	return ""
}

// queryDayMapped runs one day's worth of rows for table out of st, typed
// per eventKindForTable, for use by the Parquet export path.
func queryDayMapped(ctx context.Context, st *store.Client, table string, day time.Time, mappings map[string]string) ([]events.Row, error) {
	kind := eventKindForTable(table, mappings)
	start := day.Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	switch kind {
	case "trade":
		return queryTyped[events.TradeEventRow](ctx, st, table, start, end)
	case "create":
		return queryTyped[events.CreateEventRow](ctx, st, table, start, end)
	case "migrate":
		return queryTyped[events.MigrateEventRow](ctx, st, table, start, end)
	case "amm_buy":
		return queryTyped[events.AmmBuyEventRow](ctx, st, table, start, end)
	case "amm_sell":
		return queryTyped[events.AmmSellEventRow](ctx, st, table, start, end)
	case "amm_create_pool":
		return queryTyped[events.AmmCreatePoolEventRow](ctx, st, table, start, end)
	case "amm_deposit":
		return queryTyped[events.AmmDepositEventRow](ctx, st, table, start, end)
	case "amm_withdraw":
		return queryTyped[events.AmmWithdrawEventRow](ctx, st, table, start, end)
	default:
		return nil, fmt.Errorf("query: cannot infer event kind for table %q", table)
	}
}

func queryTyped[T events.Row](ctx context.Context, st *store.Client, table string, start, end time.Time) ([]events.Row, error) {
	var zero T
	cols := zero.Columns()

	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE timestamp >= ? AND timestamp < ? ORDER BY slot, transaction_index, instruction_index",
		strings.Join(cols, ", "), table,
	)
	rows, err := st.Query(ctx, sql, uint32(start.Unix()), uint32(end.Unix()))
	if err != nil {
		return nil, fmt.Errorf("query: %s: %w", table, err)
	}
	defer rows.Close()

	return scanRows[T](rows, len(cols))
}

func scanRows[T events.Row](rows clickhouse.Rows, n int) ([]events.Row, error) {
	var out []events.Row
	for rows.Next() {
		vals := make([]any, n)
		ptrs := make([]any, n)
		for i := range ptrs {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("query: scan: %w", err)
		}
		row, err := events.ScanInto[T](vals)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// importFile reads one exported Parquet file and inserts its rows into
// dest through st, typed per eventKindForTable.
func importFile(ctx context.Context, st *store.Client, path, destTable string, mappings map[string]string) error {
	kind := eventKindForTable(destTable, mappings)
	switch kind {
	case "trade":
		return importTyped[events.TradeEventRow](ctx, st, path, destTable)
	case "create":
		return importTyped[events.CreateEventRow](ctx, st, path, destTable)
	case "migrate":
		return importTyped[events.MigrateEventRow](ctx, st, path, destTable)
	case "amm_buy":
		return importTyped[events.AmmBuyEventRow](ctx, st, path, destTable)
	case "amm_sell":
		return importTyped[events.AmmSellEventRow](ctx, st, path, destTable)
	case "amm_create_pool":
		return importTyped[events.AmmCreatePoolEventRow](ctx, st, path, destTable)
	case "amm_deposit":
		return importTyped[events.AmmDepositEventRow](ctx, st, path, destTable)
	case "amm_withdraw":
		return importTyped[events.AmmWithdrawEventRow](ctx, st, path, destTable)
	default:
		return fmt.Errorf("import: cannot infer event kind for table %q", destTable)
	}
}

func importTyped[T events.Row](ctx context.Context, st *store.Client, path, destTable string) error {
	rec, err := parquetio.ReadFile(path)
	if err != nil {
		return err
	}
	defer rec.Release()

	rawRows, err := parquetio.RecordToValues(rec)
	if err != nil {
		return err
	}

	rows := make([]events.Row, 0, len(rawRows))
	for _, vals := range rawRows {
		row, err := events.ScanInto[T](vals)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return st.InsertRows(ctx, destTable, rows)
}
