// Package serialization reads and writes trained models as a single binary
// file: magic, format version, YAML config block, dictionary block, then the
// parameter matrices (attention table and bias only when present). All
// integers and floats are little-endian.
package serialization

import (
	"github.com/weft-ml/weft/internal/config"
	"github.com/weft-ml/weft/internal/dict"
	"github.com/weft-ml/weft/internal/linalg"
)

// Format constants.
const (
	MagicBytes    = "WEFT"
	FormatVersion = 1
)

// Flags stored after the header.
const (
	flagHasAttention uint32 = 1 << 0
)

// ModelFile bundles everything a saved model carries.
type ModelFile struct {
	Config *config.Config
	Dict   *dict.Dict
	Input  *linalg.Matrix
	Output *linalg.Matrix
	Attn   *linalg.Matrix // nil without attention
	Bias   *linalg.Vector // nil without attention
}
