// Package all wires every built-in database source into the source factory.
//
// The package exists purely for side effects: a blank import runs the init
// functions of each driver subpackage, which register their dialers with the
// source package. Binaries that only need a subset can blank-import the
// individual driver packages instead.
package all

import (
	_ "github.com/gua123/sql-export/internal/source/mssql"
	_ "github.com/gua123/sql-export/internal/source/mysql"
	_ "github.com/gua123/sql-export/internal/source/postgres"
	_ "github.com/gua123/sql-export/internal/source/sqlite"
)
