package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/osama1998H/frappe/internal/domain"
)

// csvHeaders defines the column names written as the first row of a
// permission export. One column per right follows the fixed columns.
var csvHeaders = append([]string{"parent", "role", "permlevel", "if_owner"}, domain.Rights...)

// writePermissionsCSV encodes rules as CSV, one rule per line.
// Flags are written as 0/1 so the file re-imports into spreadsheet tools cleanly.
func writePermissionsCSV(w http.ResponseWriter, perms []domain.PermissionView) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, p := range perms {
		row := []string{p.Parent, p.Role, strconv.Itoa(p.Permlevel), flag(p.IfOwner)}
		for _, right := range domain.Rights {
			row = append(row, flag(p.Get(right)))
		}
		//nolint:errcheck // see above.
		cw.Write(row)
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="permissions.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
