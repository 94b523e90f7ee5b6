package coordinator

import (
	"fmt"

	"github.com/DylanUno/whatsapp-group-form-automation/internal/domain"
)

// DefaultBatchSize keeps batches within WhatsApp's tolerance for bulk
// additions.
const DefaultBatchSize = 25

// Partition splits numbers, in order, into batches of at most size.
// Every batch is full except possibly the last; no batch is empty, so
// an empty input yields no batches. Sequence numbers are contiguous
// and 1-based.
func Partition(numbers []domain.CanonicalNumber, size int) ([]domain.Batch, error) {
	if size < 1 {
		return nil, fmt.Errorf("batch size must be positive, got %d", size)
	}

	var batches []domain.Batch
	for start := 0; start < len(numbers); start += size {
		end := min(start+size, len(numbers))
		nums := make([]domain.CanonicalNumber, end-start)
		copy(nums, numbers[start:end])
		batches = append(batches, domain.Batch{Seq: len(batches) + 1, Numbers: nums})
	}
	return batches, nil
}
