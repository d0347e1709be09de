package methods

import (
	"strings"

	"github.com/google/uuid"
)

func IsStringInSlice(s string, slice []string) bool {
	set := make(map[string]bool)
	for _, v := range slice {
		set[v] = true
	}
	return set[s]
}

// RandomSuffix returns a short token used to de-collide layer names.
func RandomSuffix(n int) string {
	token := strings.ReplaceAll(uuid.New().String(), "-", "")
	if n > len(token) {
		n = len(token)
	}
	return token[:n]
}
