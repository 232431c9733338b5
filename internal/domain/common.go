package domain

type Point struct {
	Lat float64 `json:"lat" db:"lat"`
	Lon float64 `json:"lon" db:"lon"`
}

// IsZero - Fastly и некоторые индексы отдают 0,0 вместо отсутствующих координат
func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lon == 0
}
