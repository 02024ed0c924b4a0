package errors

import (
	"fmt"
	"strings"

	"kestrel-hq/verdict/pkg/rule/ast"
)

// SuggestOperator suggests the closest recognized operator name for an
// unknown one, using Levenshtein distance. Operator names are camelCase and
// easy to mistype ("greater_than", "equals"), so a near miss almost always
// has a close match.
func SuggestOperator(unknown string) string {
	ops := ast.Operators()

	minDistance := 1000
	var bestMatch ast.Operator

	for _, op := range ops {
		dist := levenshteinDistance(strings.ToLower(unknown), strings.ToLower(string(op)))
		if dist < minDistance {
			minDistance = dist
			bestMatch = op
		}
	}

	// Only suggest a single name when the distance is reasonable.
	if minDistance < 5 {
		return fmt.Sprintf("Did you mean '%s'?", bestMatch)
	}

	names := make([]string, 0, len(ops))
	for _, op := range ops {
		names = append(names, string(op))
	}
	return fmt.Sprintf("Valid operators: %s", strings.Join(names, ", "))
}

// SuggestMissingField suggests adding a required document field.
func SuggestMissingField(fieldName string, exampleValue string) string {
	if exampleValue != "" {
		return fmt.Sprintf("Add '%s: %s' to the document", fieldName, exampleValue)
	}
	return fmt.Sprintf("Add '%s' field to the document", fieldName)
}

// levenshteinDistance computes the edit distance between two strings. Used
// for finding similar operator names.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	len1 := len(s1)
	len2 := len(s2)

	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
	}

	for i := 0; i <= len1; i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}

			matrix[i][j] = minOf(
				matrix[i-1][j]+1,      // Deletion
				matrix[i][j-1]+1,      // Insertion
				matrix[i-1][j-1]+cost, // Substitution
			)
		}
	}

	return matrix[len1][len2]
}

func minOf(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
