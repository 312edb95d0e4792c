package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ukydev/fleetdash/internal/realtime"
	"github.com/ukydev/fleetdash/internal/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// resource carries what every entity handler needs besides its collection.
type resource struct {
	table    string
	name     string
	publish  realtime.Publisher
	validate *validation.Validator
}

func newResource(table, name string, publisher realtime.Publisher) resource {
	if publisher == nil {
		publisher = realtime.Discard
	}
	return resource{table: table, name: name, publish: publisher, validate: validation.New()}
}

// bind decodes and validates a request body into form, writing a 400 on
// failure.
func (res resource) bind(w http.ResponseWriter, r *http.Request, form any) bool {
	if err := decodeJSON(r, form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := res.validate.Struct(form); err != nil {
		writeStoreError(w, r, err, res.name)
		return false
	}
	return true
}

func (res resource) changed(op realtime.Op, id string) {
	res.publish.Publish(realtime.NewChange(res.table, op, id))
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// objectID parses an id that already passed hexadecimal validation.
func objectID(s string) primitive.ObjectID {
	oid, _ := primitive.ObjectIDFromHex(s)
	return oid
}

// optionalID returns nil for an empty id.
func optionalID(s string) *primitive.ObjectID {
	if s == "" {
		return nil
	}
	oid := objectID(s)
	return &oid
}
