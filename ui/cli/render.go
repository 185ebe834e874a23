// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/toeirei/lockbox/internal/model"
)

// renderCredential writes one decrypted record in the canonical display
// format: the bracketed name on its own line, then the items indented with
// their equals signs aligned.
func renderCredential(w io.Writer, c model.DecryptedCredential) {
	fmt.Fprintf(w, "[%s]\n", c.Name)
	renderItems(w, c.Items)
}

// renderItems prints key/value pairs sorted by key, padded so the values
// line up. Empty values are shown as a placeholder instead of a blank.
func renderItems(w io.Writer, items map[string]string) {
	keys := make([]string, 0, len(items))
	width := 0
	for key := range items {
		keys = append(keys, key)
		if len(key) > width {
			width = len(key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := items[key]
		if value == "" {
			value = "[empty]"
		}
		padding := strings.Repeat(" ", width-len(key))
		fmt.Fprintf(w, "  %s%s = %s\n", key, padding, value)
	}
}

// renderNames prints the stored credential names, one per indented line.
func renderNames(w io.Writer, names []string) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	for _, name := range sorted {
		fmt.Fprintf(w, "  %s\n", name)
	}
}
