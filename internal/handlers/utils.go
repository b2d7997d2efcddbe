package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// JSONData sends {"success":true,"data":data}.
func JSONData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{"success": true, "data": data})
}

// JSONList sends {"success":true,"count":n,"data":items}.
func JSONList(w http.ResponseWriter, count int, items interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "count": count, "data": items})
}

// decodeBody decodes a JSON request body into dst and writes the failure
// response itself. It returns false when the handler should stop.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		JSONValidationError(w, "validation failed",
			map[string]string{typeErr.Field: typeMessage(typeErr.Type)},
			http.StatusBadRequest)
	case errors.As(err, &tooLarge):
		JSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
	default:
		JSONError(w, "invalid JSON", http.StatusBadRequest)
	}
	return false
}

func typeMessage(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return "must be a number"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "must be an integer"
	case reflect.String:
		return "must be a string"
	}
	return "invalid value"
}
