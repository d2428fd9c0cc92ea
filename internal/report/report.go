/**
 * Risk Report Aggregation.
 *
 * Derives a risk score and category breakdown from a slice of recent
 * Findings. Grounded on spec.md §4.4's aggregation rules and
 * original_source/src/report's category/severity/issues shape (the PDF
 * rendering step itself is out of scope per spec.md §1). Pure
 * functions over []models.Finding -- no library seam in the pack covers
 * this concern, so it is stdlib-only by design, not by omission.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package report

import (
	"sort"
	"strings"

	"github.com/netsentry/netsentry/internal/models"
)

// Category is one named risk bucket in a Report.
type Category struct {
	Name     string   `json:"name"`
	Severity string   `json:"severity"`
	Issues   []string `json:"issues"`
}

// Report is the aggregated view /scan/dynamic/results returns.
type Report struct {
	RiskScore  int        `json:"risk_score"`
	Categories []Category `json:"categories"`
}

// Build derives a Report from findings per spec.md §4.4:
// risk_score = |dangerous_protocol| + |traffic_anomaly|; a "protocols"
// category (severity high) lists sorted distinct lowercase protocol
// labels from dangerous findings; a "traffic" category (severity
// medium) lists sorted distinct sources from anomaly findings. A
// category with no issues is omitted.
func Build(findings []models.Finding) Report {
	protocolSet := make(map[string]struct{})
	sourceSet := make(map[string]struct{})
	riskScore := 0

	for _, f := range findings {
		if f.DangerousProtocol != nil && *f.DangerousProtocol {
			riskScore++
			protocolSet[protocolLabel(f)] = struct{}{}
		}
		if f.TrafficAnomaly != nil && *f.TrafficAnomaly {
			riskScore++
			sourceSet[f.SourceKey()] = struct{}{}
		}
	}

	var categories []Category
	if len(protocolSet) > 0 {
		categories = append(categories, Category{
			Name:     "protocols",
			Severity: "high",
			Issues:   sortedKeys(protocolSet),
		})
	}
	if len(sourceSet) > 0 {
		categories = append(categories, Category{
			Name:     "traffic",
			Severity: "medium",
			Issues:   sortedKeys(sourceSet),
		})
	}

	return Report{RiskScore: riskScore, Categories: categories}
}

func protocolLabel(f models.Finding) string {
	if f.Protocol == nil || *f.Protocol == "" {
		return "unknown"
	}
	return strings.ToLower(*f.Protocol)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
