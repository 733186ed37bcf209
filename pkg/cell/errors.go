package cell

import (
	"fmt"

	"github.com/OpenTraceLab/pdk2kicad/internal/errors"
)

// StructuralMismatchError reports input that parsed but is internally
// inconsistent: a macro or pin closed under another name, a repeated pin
// name, or a repeated property id.
type StructuralMismatchError struct {
	File   string
	Line   int
	Macro  string
	Detail string
}

func (e *StructuralMismatchError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: macro %s: %s", e.File, e.Line, e.Macro, e.Detail)
	}
	return fmt.Sprintf("%s: macro %s: %s", e.File, e.Macro, e.Detail)
}

// Is reports the error class.
func (e *StructuralMismatchError) Is(target error) bool {
	return target == errors.ErrStructuralMismatch
}
