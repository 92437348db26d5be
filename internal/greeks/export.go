package greeks

import (
	"io"

	"github.com/gocarina/gocsv"

	"bsm-engine/internal/models"
)

// WriteCSV writes one row per grid point with a header line.
func WriteCSV(w io.Writer, series models.GreeksSeries) error {
	return gocsv.Marshal(series.Points, w)
}
