package parquetread

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/claimengine/internal/model"
)

// ValidateSchema checks that the Parquet schema carries every column the
// reference kind requires. All missing columns are reported at once.
func ValidateSchema(schema *parquet.Schema, kind model.RefKind) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}

	var missing []string
	for _, col := range kind.ParquetColumns {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s file missing required column(s): %s", kind.Name, strings.Join(missing, ", "))
	}
	return nil
}
