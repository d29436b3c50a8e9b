package resource_cache

import (
	"errors"
	"fmt"
)

// ErrIndexOverflow is matched by IndexWidthError.
var ErrIndexOverflow = errors.New("index exceeds 16-bit range and 32-bit indices are unsupported")

// IndexWidthError reports a geometry whose indices cannot be stored at any width the
// active context supports. It is fatal for the whole frame.
type IndexWidthError struct {
	ObjectID uint64
	MaxIndex uint32
}

func (e *IndexWidthError) Error() string {
	return fmt.Sprintf("object %d: max index %d exceeds 16-bit range and 32-bit indices are unsupported", e.ObjectID, e.MaxIndex)
}

func (e *IndexWidthError) Is(target error) bool {
	return target == ErrIndexOverflow
}
