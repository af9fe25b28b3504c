package apirouter

import (
	"fmt"
	"mime/multipart"
	"reflect"
	"strings"
)

// Parameter locations, matching the OpenAPI "in" values plus form.
const (
	inPath   = "path"
	inQuery  = "query"
	inHeader = "header"
	inCookie = "cookie"
	inForm   = "form"
)

var (
	fileHeaderType  = reflect.TypeOf((*multipart.FileHeader)(nil))
	fileHeadersType = reflect.TypeOf([]*multipart.FileHeader(nil))
)

// paramField describes one classified request struct field. The same
// descriptor drives runtime binding and document parameters, so the two can
// never drift apart.
type paramField struct {
	in       string
	name     string // wire name from the tag
	key      string // json tag name or Go field name, matches rule error keys
	index    int
	typ      reflect.Type
	defValue string
	isFile   bool
}

// fieldSet is the classification of a request type, computed once at
// registration.
type fieldSet struct {
	params    []paramField
	bodyIndex int // index of the Body field, -1 if absent
	bodyType  reflect.Type
	keyToIn   map[string]string // rule error key -> parameter location
}

func (fs *fieldSet) hasBody() bool { return fs.bodyIndex >= 0 }

func (fs *fieldSet) hasForm() bool {
	for _, p := range fs.params {
		if p.in == inForm {
			return true
		}
	}
	return false
}

// bindsInput reports whether the route consumes any client-supplied input
// that can fail validation.
func (fs *fieldSet) bindsInput() bool {
	return fs != nil && (len(fs.params) > 0 || fs.hasBody())
}

// classifyFields walks a request struct type and classifies each exported
// field by its location tag. The field named Body is the JSON request body.
// Returns an error for declarations the layer cannot serve, e.g. mixing
// form fields with a JSON body.
func classifyFields(t reflect.Type) (*fieldSet, error) {
	fs := &fieldSet{bodyIndex: -1, keyToIn: map[string]string{}}
	if t == voidType {
		return fs, nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("request type %s must be a struct", t)
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if sf.Name == "Body" {
			fs.bodyIndex = i
			fs.bodyType = sf.Type
			fs.keyToIn[fieldKey(sf)] = "body"
			continue
		}

		pf, ok, err := classifyField(sf, i)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		fs.params = append(fs.params, pf)
		fs.keyToIn[pf.key] = pf.in
	}

	if fs.hasBody() && fs.hasForm() {
		return nil, fmt.Errorf("request type %s mixes form fields with a Body field", t)
	}
	return fs, nil
}

func classifyField(sf reflect.StructField, index int) (paramField, bool, error) {
	for _, in := range []string{inPath, inQuery, inHeader, inCookie, inForm} {
		name := sf.Tag.Get(in)
		if name == "" {
			continue
		}
		pf := paramField{
			in:       in,
			name:     name,
			key:      fieldKey(sf),
			index:    index,
			typ:      sf.Type,
			defValue: sf.Tag.Get("default"),
			isFile:   sf.Type == fileHeaderType || sf.Type == fileHeadersType,
		}
		if pf.isFile && in != inForm {
			return paramField{}, false, fmt.Errorf("field %s: file uploads must use a form tag", sf.Name)
		}
		return pf, true, nil
	}
	return paramField{}, false, nil
}

// fieldKey mirrors the validate package's error-key convention: json tag
// name when present, Go field name otherwise.
func fieldKey(sf reflect.StructField) string {
	if tag := strings.Split(sf.Tag.Get("json"), ",")[0]; tag != "" && tag != "-" {
		return tag
	}
	return sf.Name
}
