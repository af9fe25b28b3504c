package apirouter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

// maxMultipartMemory bounds in-memory multipart parsing (32 MB).
const maxMultipartMemory = 32 << 20

// bindError is a binding failure attributed to one input location, rendered
// into the 422 envelope.
type bindError struct {
	in   string
	name string
	err  error
}

func (e *bindError) Error() string {
	return fmt.Sprintf("%s parameter %q: %v", e.in, e.name, e.err)
}

// bindRequest populates the request struct pointed to by target from r,
// using the registration-time field classification. The JSON body (if any)
// is decoded but not yet validated; validation runs once over the whole
// struct afterwards.
func bindRequest(target any, r *http.Request, fs *fieldSet) error {
	v := reflect.ValueOf(target).Elem()

	var vars map[string]string
	formParsed := false

	for _, pf := range fs.params {
		values, err := lookupValues(r, pf, &vars, &formParsed)
		if err != nil {
			return &bindError{in: pf.in, name: pf.name, err: err}
		}

		if pf.isFile {
			bindFile(v.Field(pf.index), r, pf)
			continue
		}

		if len(values) == 0 {
			if pf.defValue == "" {
				continue
			}
			values = []string{pf.defValue}
		}
		if err := setField(v.Field(pf.index), values); err != nil {
			return &bindError{in: pf.in, name: pf.name, err: err}
		}
	}

	if fs.hasBody() {
		body := v.Field(fs.bodyIndex).Addr().Interface()
		if err := json.NewDecoder(r.Body).Decode(body); err != nil {
			return &bindError{in: "body", name: "body", err: err}
		}
	}

	return nil
}

// lookupValues fetches the raw string values for a parameter from its
// location.
func lookupValues(r *http.Request, pf paramField, vars *map[string]string, formParsed *bool) ([]string, error) {
	switch pf.in {
	case inPath:
		if *vars == nil {
			*vars = mux.Vars(r)
		}
		if val, ok := (*vars)[pf.name]; ok {
			return []string{val}, nil
		}
		return nil, nil
	case inQuery:
		return r.URL.Query()[pf.name], nil
	case inHeader:
		return r.Header.Values(pf.name), nil
	case inCookie:
		c, err := r.Cookie(pf.name)
		if err != nil { // http.ErrNoCookie: treat as absent
			return nil, nil
		}
		return []string{c.Value}, nil
	case inForm:
		if err := parseForm(r, formParsed); err != nil {
			return nil, err
		}
		if r.MultipartForm != nil {
			return r.MultipartForm.Value[pf.name], nil
		}
		return r.PostForm[pf.name], nil
	}
	return nil, nil
}

func parseForm(r *http.Request, done *bool) error {
	if *done {
		return nil
	}
	*done = true
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		return r.ParseMultipartForm(maxMultipartMemory)
	}
	return r.ParseForm()
}

func bindFile(field reflect.Value, r *http.Request, pf paramField) {
	if r.MultipartForm == nil {
		return
	}
	files := r.MultipartForm.File[pf.name]
	if len(files) == 0 {
		return
	}
	if pf.typ == fileHeaderType {
		field.Set(reflect.ValueOf(files[0]))
		return
	}
	field.Set(reflect.ValueOf(files))
}

// setField assigns raw string values to a struct field, coercing scalars,
// filling slices from repeated values, and JSON-decoding composite types.
func setField(field reflect.Value, values []string) error {
	t := field.Type()

	if t.Kind() == reflect.Ptr {
		elem := reflect.New(t.Elem())
		if err := setField(elem.Elem(), values); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	if t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8 {
		slice := reflect.MakeSlice(t, len(values), len(values))
		for i, val := range values {
			if err := setScalar(slice.Index(i), val); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	}

	if len(values) == 0 {
		return nil
	}
	return setScalar(field, values[0])
}

var timeType = reflect.TypeOf(time.Time{})

// setScalar coerces one raw string into a field value. Composite element
// types (structs, maps) are decoded as JSON, which is how objects travel in
// query and form values.
func setScalar(field reflect.Value, val string) error {
	t := field.Type()

	if t == timeType {
		ts, err := time.Parse(time.RFC3339, val)
		if err != nil {
			return fmt.Errorf("must be an RFC 3339 timestamp: %w", err)
		}
		field.Set(reflect.ValueOf(ts))
		return nil
	}

	switch t.Kind() {
	case reflect.String:
		field.SetString(val)
	case reflect.Bool:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("must be a boolean, got %q", val)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("must be an integer, got %q", val)
		}
		if field.OverflowInt(n) {
			return fmt.Errorf("integer %q overflows %s", val, t)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("must be a non-negative integer, got %q", val)
		}
		if field.OverflowUint(n) {
			return fmt.Errorf("integer %q overflows %s", val, t)
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("must be a number, got %q", val)
		}
		field.SetFloat(f)
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Ptr:
		if err := json.Unmarshal([]byte(val), field.Addr().Interface()); err != nil {
			return fmt.Errorf("must be JSON-encoded: %w", err)
		}
	default:
		return fmt.Errorf("unsupported parameter type %s", t)
	}
	return nil
}
