package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint - нормализованный ключ запроса и его хеш (для шардирования и ключей Redis)
type Fingerprint struct {
	Key  string `json:"key"`
	Hash uint64 `json:"hash"`
}

// Hex - хеш в виде 16 hex-символов
func (f Fingerprint) Hex() string {
	return fmt.Sprintf("%016x", f.Hash)
}

// NewFingerprint строит отпечаток из уже канонического ключа
func NewFingerprint(key string) Fingerprint {
	return Fingerprint{Key: key, Hash: xxhash.Sum64String(key)}
}

// NormalizeTerm - trim, lower-case и схлопывание пробелов
func NormalizeTerm(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}

// Fingerprint строит отпечаток запроса для заданного режима.
// Одинаковые по смыслу запросы дают одинаковый ключ.
func (q LocationQuery) Fingerprint(mode ResolutionMode) Fingerprint {
	var b strings.Builder
	b.WriteString("v1|")
	b.WriteString(string(mode))
	b.WriteString("|t=")
	b.WriteString(NormalizeTerm(q.Term))
	b.WriteString("|l=")
	b.WriteString(string(q.Locale))
	b.WriteString("|g=")
	if q.Geo != nil {
		b.WriteString(strconv.FormatFloat(q.Geo.Lat, 'f', 5, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(q.Geo.Lon, 'f', 5, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(q.Geo.RadiusKm, 'f', 3, 64))
	}
	b.WriteString("|ty=")
	for i, t := range NormalizeTypes(q.Types) {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(t))
	}
	b.WriteString("|c=")
	b.WriteString(strings.ToUpper(q.CountryISO))
	b.WriteString("|f=")
	b.WriteString(strconv.FormatBool(q.FeaturedOnly))
	b.WriteString("|n=")
	b.WriteString(strconv.Itoa(q.Limit))
	return NewFingerprint(b.String())
}
