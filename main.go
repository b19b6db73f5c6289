// SPDX-License-Identifier: AGPL-3.0-only
package main

import "github.com/SejalWadi/Meta-Analytics-Pro/internal/cli"

func main() {
	cli.Execute()
}
