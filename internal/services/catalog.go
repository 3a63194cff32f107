package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/dediggibyte/databricks-dqx-agent/internal/domain"
	"github.com/dediggibyte/databricks-dqx-agent/internal/pkg/logger"
	"github.com/dediggibyte/databricks-dqx-agent/internal/platform/databricks"
)

const listingCacheTTL = 5 * time.Minute

// CatalogService browses Unity Catalog over the SQL warehouse. All reads
// are best-effort: query failures degrade to a usable default instead of
// surfacing an error, so the UI keeps working while the warehouse is down.
type CatalogService interface {
	Catalogs(ctx context.Context) []string
	Schemas(ctx context.Context, catalog string) []string
	Tables(ctx context.Context, catalog, schema string) []string
	Sample(ctx context.Context, fullTableName string, limit int) *types.TableSample
}

type catalogService struct {
	log         *logger.Logger
	dbx         databricks.Client
	warehouseID string
	cache       *goredis.Client
}

func NewCatalogService(log *logger.Logger, dbx databricks.Client, warehouseID string, cache *goredis.Client) CatalogService {
	return &catalogService{
		log:         log.With("service", "CatalogService"),
		dbx:         dbx,
		warehouseID: warehouseID,
		cache:       cache,
	}
}

func (s *catalogService) Catalogs(ctx context.Context) []string {
	names, err := s.listCached(ctx, "uc:catalogs", "SHOW CATALOGS")
	if err != nil {
		s.log.Warn("listing catalogs failed", "error", err)
		return []string{"main"}
	}
	if len(names) == 0 {
		return []string{"main"}
	}
	return names
}

func (s *catalogService) Schemas(ctx context.Context, catalog string) []string {
	key := "uc:schemas:" + catalog
	stmt := fmt.Sprintf("SHOW SCHEMAS IN `%s`", catalog)
	names, err := s.listCached(ctx, key, stmt)
	if err != nil {
		s.log.Warn("listing schemas failed", "catalog", catalog, "error", err)
		return []string{"default"}
	}
	if len(names) == 0 {
		return []string{"default"}
	}
	return names
}

func (s *catalogService) Tables(ctx context.Context, catalog, schema string) []string {
	key := fmt.Sprintf("uc:tables:%s.%s", catalog, schema)
	if cached, ok := s.cacheGet(ctx, key); ok {
		return cached
	}

	stmt := fmt.Sprintf("SHOW TABLES IN `%s`.`%s`", catalog, schema)
	result, err := s.dbx.ExecuteStatement(ctx, s.warehouseID, stmt)
	if err != nil {
		s.log.Warn("listing tables failed", "catalog", catalog, "schema", schema, "error", err)
		return []string{}
	}

	// SHOW TABLES returns (database, tableName, isTemporary).
	col := columnIndex(result.Columns, "tableName")
	if col < 0 {
		col = columnIndex(result.Columns, "table_name")
	}
	if col < 0 && len(result.Columns) > 1 {
		col = 1
	}
	names := []string{}
	for _, row := range result.Rows {
		if col >= 0 && col < len(row) {
			if v, ok := row[col].(string); ok {
				names = append(names, v)
			}
		}
	}
	s.cacheSet(ctx, key, names)
	return names
}

func (s *catalogService) Sample(ctx context.Context, fullTableName string, limit int) *types.TableSample {
	if limit <= 0 {
		limit = 100
	}
	stmt := fmt.Sprintf("SELECT * FROM %s LIMIT %d", fullTableName, limit)
	result, err := s.dbx.ExecuteStatement(ctx, s.warehouseID, stmt)
	if err != nil {
		s.log.Warn("table sample failed", "table", fullTableName, "error", err)
		return &types.TableSample{Columns: []string{}, Rows: []map[string]interface{}{}, Error: err.Error()}
	}

	rows := make([]map[string]interface{}, 0, len(result.Rows))
	for _, raw := range result.Rows {
		row := map[string]interface{}{}
		for i, col := range result.Columns {
			if i < len(raw) {
				row[col] = raw[i]
			}
		}
		rows = append(rows, row)
	}
	return &types.TableSample{
		Columns:  result.Columns,
		Rows:     rows,
		RowCount: len(rows),
	}
}

// listCached runs a single-column listing statement through the optional
// redis cache.
func (s *catalogService) listCached(ctx context.Context, key, stmt string) ([]string, error) {
	if cached, ok := s.cacheGet(ctx, key); ok {
		return cached, nil
	}
	result, err := s.dbx.ExecuteStatement(ctx, s.warehouseID, stmt)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, row := range result.Rows {
		if len(row) > 0 {
			if v, ok := row[0].(string); ok {
				names = append(names, v)
			}
		}
	}
	s.cacheSet(ctx, key, names)
	return names, nil
}

func (s *catalogService) cacheGet(ctx context.Context, key string) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, false
	}
	return names, true
}

func (s *catalogService) cacheSet(ctx context.Context, key string, names []string) {
	if s.cache == nil || len(names) == 0 {
		return
	}
	raw, err := json.Marshal(names)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, listingCacheTTL).Err(); err != nil {
		s.log.Debug("listing cache write failed", "key", key, "error", err)
	}
}

func columnIndex(columns []string, name string) int {
	for i, col := range columns {
		if col == name {
			return i
		}
	}
	return -1
}
