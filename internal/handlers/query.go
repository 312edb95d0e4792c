package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ukydev/fleetdash/internal/db"
	"go.mongodb.org/mongo-driver/bson"
)

const maxListLimit = 1000

// listOptions describes the filters a list endpoint accepts.
type listOptions struct {
	vehicleField string
	sortable     []string
	defaultSort  string
	defaultDesc  bool
}

// parseListQuery turns status, vehicle_id, limit and order parameters into a
// db.Query. order is a field name, optionally prefixed with "-" or suffixed
// with ".desc" for descending order.
func parseListQuery(r *http.Request, opts listOptions) (db.Query, error) {
	v := r.URL.Query()
	q := db.Query{Filter: bson.M{}, SortField: opts.defaultSort, Descending: opts.defaultDesc}

	if s := v.Get("status"); s != "" {
		q.Filter["status"] = s
	}
	if id := v.Get("vehicle_id"); id != "" && opts.vehicleField != "" {
		oid, err := db.ParseID(id)
		if err != nil {
			return q, err
		}
		q.Filter[opts.vehicleField] = oid
	}
	if l := v.Get("limit"); l != "" {
		n, err := strconv.ParseInt(l, 10, 64)
		if err != nil || n < 0 {
			return q, fmt.Errorf("invalid limit %q", l)
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		q.Limit = n
	}
	if o := v.Get("order"); o != "" {
		field, desc := o, false
		switch {
		case strings.HasPrefix(field, "-"):
			field, desc = field[1:], true
		case strings.HasSuffix(field, ".desc"):
			field, desc = strings.TrimSuffix(field, ".desc"), true
		case strings.HasSuffix(field, ".asc"):
			field = strings.TrimSuffix(field, ".asc")
		}
		if !contains(opts.sortable, field) {
			return q, fmt.Errorf("cannot order by %q", field)
		}
		q.SortField, q.Descending = field, desc
	}
	return q, nil
}

func expand(r *http.Request) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get("expand"))
	return b
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
