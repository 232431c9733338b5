// Package domain содержит типы модели поиска локаций: запрос, кандидаты бэкенда,
// ранжированные результаты, исходы разрешения и записи кеша.
package domain
