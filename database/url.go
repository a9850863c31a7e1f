package database

import (
	"fmt"
	"strings"
)

// ConstructDatabaseURL joins the base URL and database name, keeping any
// query parameters and defaulting sslmode to disable
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	base, query, _ := strings.Cut(strings.TrimRight(baseURL, "/"), "?")
	base = strings.TrimRight(base, "/")

	params := []string{}
	if query != "" {
		params = append(params, query)
	}
	if !strings.Contains(query, "sslmode=") {
		params = append(params, "sslmode=disable")
	}

	return fmt.Sprintf("%s/%s?%s", base, databaseName, strings.Join(params, "&"))
}
