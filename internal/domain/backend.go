package domain

import "errors"

// QuerySource - вид бэкенд-запроса
type QuerySource string

const (
	SourceText   QuerySource = "text"
	SourceGeo    QuerySource = "geo"
	SourceLookup QuerySource = "lookup"
)

// BackendQuery - запрос к поисковому бэкенду. Фильтры применяются на стороне бэкенда.
type BackendQuery struct {
	Source        QuerySource
	Term          string
	Locale        Locale
	DefaultLocale Locale
	Geo           *GeoBias
	Types         []EntityType
	CountryISO    string
	FeaturedOnly  bool
	IDs           []string
	Size          int
}

// ErrBackendTransient помечает ошибки бэкенда, после которых допустим повтор
var ErrBackendTransient = errors.New("transient backend failure")

// IsTransient - можно ли повторить запрос после этой ошибки
func IsTransient(err error) bool {
	return errors.Is(err, ErrBackendTransient)
}
