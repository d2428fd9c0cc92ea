/**
 * Finding Decoding.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package storage

import (
	"encoding/json"
	"fmt"

	"github.com/netsentry/netsentry/internal/models"
)

// decodeFinding parses a results.data JSON blob. The timestamp comes
// back from the blob itself, since SaveFinding stamps the Finding before
// encoding it; the results.timestamp column is not read here.
func decodeFinding(raw string) (models.Finding, error) {
	var f models.Finding
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return models.Finding{}, fmt.Errorf("decode finding: %w", err)
	}
	return f, nil
}
