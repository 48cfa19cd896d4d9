package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"tplc/internal/domain"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(data))
}

// printTable renders rows with aligned columns, legible in a terminal.
func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("No results.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

// printError writes the structured error contract to stderr:
// {"error": <kind>, "message": <text>[, "error_code": <vendor code>]}.
func printError(err error) {
	payload := map[string]any{
		"error":   string(domain.Kind(err)),
		"message": err.Error(),
	}
	if code, ok := domain.ErrorCode(err); ok {
		payload["error_code"] = code
	}
	data, merr := json.MarshalIndent(payload, "", "  ")
	if merr != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Fprintln(os.Stderr, string(data))
}

// exitCode maps error kinds to the process exit contract: 0 success,
// 1 general, 2 auth, 3 device not found, 4 device offline.
func exitCode(err error) int {
	switch domain.Kind(err) {
	case domain.KindAuth, domain.KindMFARequired, domain.KindTokenExpired, domain.KindNotAuthenticated:
		return 2
	case domain.KindDeviceNotFound, domain.KindAmbiguousDevice:
		return 3
	case domain.KindDeviceOffline:
		return 4
	default:
		return 1
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
