package orders

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"restaurant-pos-api/apperr"
	"restaurant-pos-api/models"
)

// generateNumber allocates a date-prefixed human-readable order number with
// a random suffix, retrying on collision a bounded number of times.
func (s *Service) generateNumber(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < s.numberAttempts; attempt++ {
		candidate := fmt.Sprintf("%s-%s", s.now().Format("20060102"), randomSuffix())
		var count int64
		if err := tx.Model(&models.Order{}).Where("number = ?", candidate).Count(&count).Error; err != nil {
			return "", apperr.Internal(err, "order number check failed")
		}
		if count == 0 {
			return candidate, nil
		}
		s.log.Warn().Str("number", candidate).Int("attempt", attempt+1).
			Msg("order number collision, retrying")
	}
	return "", apperr.Conflict("could not allocate a unique order number after %d attempts", s.numberAttempts)
}

func randomSuffix() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:6])
}
