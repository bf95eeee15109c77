// Package all wires every built-in artifact format into the sink factory.
// A blank import runs the init functions of each format subpackage.
package all

import (
	_ "github.com/gua123/sql-export/internal/sink/csv"
	_ "github.com/gua123/sql-export/internal/sink/xlsx"
)
