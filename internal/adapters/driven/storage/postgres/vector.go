package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nob-ogura/document-locator/internal/core/domain"
)

// vectorLiteral serialises an embedding as the bracketed comma-separated
// literal pgvector accepts, with up to 15 significant digits per component.
func vectorLiteral(embedding []float64) (string, error) {
	if len(embedding) == 0 {
		return "", fmt.Errorf("%w: embedding must contain at least one value", domain.ErrInvalidInput)
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', 15, 64))
	}
	b.WriteByte(']')
	return b.String(), nil
}

// distanceToSimilarity maps the unbounded distance metric onto (0, 1].
// Negative distances clamp to zero before conversion.
func distanceToSimilarity(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

// maxDistanceForSimilarity inverts distanceToSimilarity, turning a
// minimum-similarity threshold into the equivalent maximum-distance bound.
// The threshold must lie in (0, 1].
func maxDistanceForSimilarity(minSimilarity float64) (float64, error) {
	if minSimilarity <= 0 || minSimilarity > 1 {
		return 0, fmt.Errorf("%w: min similarity must be in (0, 1], got %v", domain.ErrInvalidInput, minSimilarity)
	}
	return 1/minSimilarity - 1, nil
}
