package postgres

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/domain/repository"
	"go.uber.org/zap"
)

const locationColumns = `id, type, names, region_names, COALESCE(country_iso, '') AS country_iso, is_featured, lat, lon`

// haversineSQL - расстояние в км от точки ($lat, $lon) до строки таблицы
const haversineSQL = `6371 * 2 * ASIN(SQRT(
	POWER(SIN(RADIANS(lat - %[1]s) / 2), 2) +
	COS(RADIANS(%[1]s)) * COS(RADIANS(lat)) * POWER(SIN(RADIANS(lon - %[2]s) / 2), 2)
))`

type searchBackend struct {
	db *DB
}

// NewSearchBackend - поиск по таблице locations
func NewSearchBackend(db *DB) repository.SearchBackend {
	return &searchBackend{db: db}
}

type locationRow struct {
	ID          string  `db:"id"`
	Type        string  `db:"type"`
	Names       []byte  `db:"names"`
	RegionNames []byte  `db:"region_names"`
	CountryISO  string  `db:"country_iso"`
	IsFeatured  bool    `db:"is_featured"`
	Lat         float64 `db:"lat"`
	Lon         float64 `db:"lon"`
	Score       float64 `db:"score"`
	Quality     int     `db:"quality"`
}

// args - позиционные параметры запроса ($1, $2, ...)
type args []interface{}

func (a *args) add(v interface{}) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

// typed - параметр с явным приведением типа
func (a *args) typed(v interface{}, pgType string) string {
	return a.add(v) + "::" + pgType
}

func (r *searchBackend) Name() string {
	return "postgres"
}

func (r *searchBackend) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return classify(fmt.Errorf("postgres ping: %w", err))
	}
	return nil
}

func (r *searchBackend) Search(ctx context.Context, q domain.BackendQuery) ([]domain.CandidateHit, error) {
	var (
		query string
		a     args
	)
	switch q.Source {
	case domain.SourceGeo:
		query = geoSQL(q, &a)
	case domain.SourceLookup:
		query = lookupSQL(q, &a)
	default:
		query = textSQL(q, &a)
	}

	r.db.logger.Debug("Executing postgres search",
		zap.String("source", string(q.Source)),
		zap.Int("size", q.Size))

	var rows []locationRow
	if err := r.db.SelectContext(ctx, &rows, query, a...); err != nil {
		return nil, classify(fmt.Errorf("postgres search: %w", err))
	}

	hits := make([]domain.CandidateHit, 0, len(rows))
	for _, row := range rows {
		hit, err := row.toCandidate(q.Source)
		if err != nil {
			r.db.logger.Warn("Skipping malformed location row", zap.String("id", row.ID), zap.Error(err))
			continue
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// textSQL: 3 - точное совпадение имени, 2 - префикс, 1 - подстрока
func textSQL(q domain.BackendQuery, a *args) string {
	term := a.typed(strings.ToLower(q.Term), "text")
	pattern := a.typed(escapeLike(strings.ToLower(q.Term)), "text")

	locales := nameLocales(q)
	grades := make([]string, 0, len(locales))
	for _, l := range locales {
		name := fmt.Sprintf("LOWER(names->>%s)", a.typed(string(l), "text"))
		grades = append(grades, fmt.Sprintf(
			`CASE WHEN %[1]s = %[2]s THEN 3 WHEN %[1]s LIKE %[3]s || '%%' THEN 2 WHEN %[1]s LIKE '%%' || %[3]s || '%%' THEN 1 ELSE 0 END`,
			name, term, pattern))
	}

	where := append(commonFilters(q, a), localeFilter(q, a))
	return fmt.Sprintf(`
		SELECT * FROM (
			SELECT %s, GREATEST(%s)::float8 AS score, GREATEST(%s) AS quality
			FROM locations
			WHERE %s
		) t
		WHERE quality > 0
		ORDER BY score DESC, id
		LIMIT %s`,
		locationColumns, strings.Join(grades, ", "), strings.Join(grades, ", "),
		strings.Join(where, " AND "), a.add(q.Size))
}

// geoSQL: score = 1 / (1 + расстояние в км) в пределах радиуса
func geoSQL(q domain.BackendQuery, a *args) string {
	distance := fmt.Sprintf(haversineSQL, a.typed(q.Geo.Lat, "float8"), a.typed(q.Geo.Lon, "float8"))

	where := append(commonFilters(q, a), localeFilter(q, a))
	if q.Term != "" {
		pattern := a.typed(escapeLike(strings.ToLower(q.Term)), "text")
		locales := nameLocales(q)
		like := make([]string, 0, len(locales))
		for _, l := range locales {
			like = append(like, fmt.Sprintf(`LOWER(names->>%s) LIKE '%%' || %s || '%%'`, a.typed(string(l), "text"), pattern))
		}
		where = append(where, "("+strings.Join(like, " OR ")+")")
	}

	return fmt.Sprintf(`
		SELECT id, type, names, region_names, country_iso, is_featured, lat, lon,
			(1.0 / (1.0 + distance_km))::float8 AS score, 0 AS quality
		FROM (
			SELECT %s, %s AS distance_km
			FROM locations
			WHERE %s
		) t
		WHERE distance_km <= %s
		ORDER BY distance_km, id
		LIMIT %s`,
		locationColumns, distance, strings.Join(where, " AND "),
		a.typed(q.Geo.RadiusKm, "float8"), a.add(q.Size))
}

func lookupSQL(q domain.BackendQuery, a *args) string {
	where := commonFilters(q, a)
	if len(q.IDs) > 0 {
		where = append(where, fmt.Sprintf("id = ANY(%s)", a.typed(pq.Array(q.IDs), "text[]")))
	}
	return fmt.Sprintf(`
		SELECT %s, 1.0::float8 AS score, 0 AS quality
		FROM locations
		WHERE %s
		ORDER BY id
		LIMIT %s`,
		locationColumns, strings.Join(where, " AND "), a.add(q.Size))
}

func commonFilters(q domain.BackendQuery, a *args) []string {
	where := []string{"TRUE"}
	if len(q.Types) > 0 {
		types := make([]string, len(q.Types))
		for i, t := range q.Types {
			types[i] = string(t)
		}
		where = append(where, fmt.Sprintf("type = ANY(%s)", a.typed(pq.Array(types), "text[]")))
	}
	if q.CountryISO != "" {
		where = append(where, fmt.Sprintf("country_iso = %s", a.typed(q.CountryISO, "bpchar")))
	}
	if q.FeaturedOnly {
		where = append(where, "is_featured")
	}
	return where
}

func localeFilter(q domain.BackendQuery, a *args) string {
	locales := nameLocales(q)
	exists := make([]string, 0, len(locales))
	for _, l := range locales {
		exists = append(exists, fmt.Sprintf("names->>%s IS NOT NULL", a.typed(string(l), "text")))
	}
	return "(" + strings.Join(exists, " OR ") + ")"
}

func nameLocales(q domain.BackendQuery) []domain.Locale {
	locales := []domain.Locale{q.Locale}
	if q.DefaultLocale != "" && q.DefaultLocale != q.Locale {
		locales = append(locales, q.DefaultLocale)
	}
	return locales
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (row locationRow) toCandidate(source domain.QuerySource) (domain.CandidateHit, error) {
	names, err := decodeNames(row.Names)
	if err != nil {
		return domain.CandidateHit{}, fmt.Errorf("names: %w", err)
	}
	regionNames, err := decodeNames(row.RegionNames)
	if err != nil {
		return domain.CandidateHit{}, fmt.Errorf("region_names: %w", err)
	}

	hit := domain.CandidateHit{
		ID:          row.ID,
		Type:        domain.EntityType(row.Type),
		Score:       row.Score,
		Names:       names,
		RegionNames: regionNames,
		CountryISO:  row.CountryISO,
		Featured:    row.IsFeatured,
		Location:    domain.Point{Lat: row.Lat, Lon: row.Lon},
	}
	if !hit.Type.IsValid() {
		return domain.CandidateHit{}, fmt.Errorf("unknown type %q", row.Type)
	}

	switch source {
	case domain.SourceGeo:
		hit.MatchQuality = domain.MatchProximity
	case domain.SourceLookup:
		hit.MatchQuality = domain.MatchLookup
	default:
		hit.MatchQuality = qualityFromGrade(row.Quality)
	}
	return hit, nil
}

func qualityFromGrade(grade int) domain.MatchQuality {
	switch grade {
	case 3:
		return domain.MatchExact
	case 2:
		return domain.MatchPrefix
	case 1:
		return domain.MatchFuzzy
	default:
		return domain.MatchNone
	}
}

func decodeNames(raw []byte) (map[domain.Locale]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[domain.Locale]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// transientSQLStates - SQLSTATE, после которых запрос можно повторить
var transientSQLStates = map[string]bool{
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
	"53300": true, // too_many_connections
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
}

func isTransientSQLState(code string) bool {
	return transientSQLStates[code] || strings.HasPrefix(code, "08")
}

// classify помечает сетевые отказы и временные SQLSTATE как ErrBackendTransient
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if isTransientSQLState(pgErr.Code) {
			return fmt.Errorf("%w: %v", domain.ErrBackendTransient, err)
		}
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if isTransientSQLState(string(pqErr.Code)) {
			return fmt.Errorf("%w: %v", domain.ErrBackendTransient, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		pgconn.SafeToRetry(err) ||
		pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", domain.ErrBackendTransient, err)
	}
	return err
}
