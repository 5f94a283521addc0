package analysis

import (
	"fmt"
	"time"

	"videolens/internal/services"
)

// ProcessingFailedError reports an asset whose remote processing ended in a
// state other than ACTIVE.
type ProcessingFailedError struct {
	Asset Asset
}

func (e *ProcessingFailedError) Error() string {
	return fmt.Sprintf("%s: file %s failed to process (state %s)", services.ErrProcessingFailed, e.Asset.Name, e.Asset.State)
}

// Is matches services.ErrProcessingFailed.
func (e *ProcessingFailedError) Is(target error) bool {
	return target == services.ErrProcessingFailed
}

// TimeoutError reports that the readiness wait exceeded its budget while
// Asset was still processing.
type TimeoutError struct {
	Asset  Asset
	Waited time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: file %s still processing after %s", services.ErrTimeout, e.Asset.Name, e.Waited.Round(time.Second))
}

// Is matches services.ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == services.ErrTimeout
}

// ensureMarked tags errors coming back from a Backend that did not classify
// them already.
func ensureMarked(err error, marker error, operation, message string) error {
	if err == nil || services.Marked(err) {
		return err
	}
	return services.Wrap(marker, "analysis", operation, message, err)
}
