package apirouter

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/Gobd/apirouter/validate"
)

const componentPrefix = "#/components/schemas/"

// schemaRegistry accumulates the document's component schemas. Two distinct
// types sharing a name get distinct components: the newcomer is renamed with
// a numeric suffix and every $ref it produced is rewritten to match.
// Identical schemas collapse to one component.
type schemaRegistry struct {
	components openapi3.Schemas
	byType     map[reflect.Type]*openapi3.SchemaRef
}

func newSchemaRegistry() *schemaRegistry {
	return &schemaRegistry{
		components: openapi3.Schemas{},
		byType:     map[reflect.Type]*openapi3.SchemaRef{},
	}
}

// refFor returns a schema ref for t, exporting named types it contains into
// the registry's components. Results are memoized per type.
func (sr *schemaRegistry) refFor(t reflect.Type) (*openapi3.SchemaRef, error) {
	if ref, ok := sr.byType[t]; ok {
		return ref, nil
	}

	scratch := openapi3.Schemas{}
	ref, err := validate.NewSchemaRefForType(t, scratch)
	if err != nil {
		return nil, fmt.Errorf("schema for %s: %w", t, err)
	}
	if err := sr.liftEnums(t, ref.Value, scratch, map[reflect.Type]bool{}); err != nil {
		return nil, err
	}

	renames := sr.merge(scratch)
	if len(renames) > 0 {
		rewriteRefs(ref, renames, map[*openapi3.SchemaRef]bool{})
		for _, sref := range scratch {
			rewriteRefs(sref, renames, map[*openapi3.SchemaRef]bool{})
		}
	}

	sr.byType[t] = ref
	return ref, nil
}

// merge places scratch components into the registry and returns the renames
// collisions forced. Names are processed in sorted order so suffixes are
// deterministic.
func (sr *schemaRegistry) merge(scratch openapi3.Schemas) map[string]string {
	names := make([]string, 0, len(scratch))
	for name := range scratch {
		names = append(names, name)
	}
	sort.Strings(names)

	renames := map[string]string{}
	for _, name := range names {
		final := sr.place(name, scratch[name])
		if final != name {
			renames[name] = final
		}
	}
	return renames
}

// place stores ref under name, or under the first free suffixed name when a
// different schema already owns it. Returns the name used.
func (sr *schemaRegistry) place(name string, ref *openapi3.SchemaRef) string {
	for i := 1; ; i++ {
		cand := name
		if i > 1 {
			cand = fmt.Sprintf("%s%d", name, i)
		}
		existing, taken := sr.components[cand]
		if !taken {
			sr.components[cand] = ref
			return cand
		}
		if schemasEqual(existing, ref) {
			return cand
		}
	}
}

func schemasEqual(a, b *openapi3.SchemaRef) bool {
	ja, errA := json.Marshal(a.Value)
	jb, errB := json.Marshal(b.Value)
	return errA == nil && errB == nil && string(ja) == string(jb)
}

// rewriteRefs walks a schema tree replacing renamed component references.
func rewriteRefs(ref *openapi3.SchemaRef, renames map[string]string, seen map[*openapi3.SchemaRef]bool) {
	if ref == nil || seen[ref] {
		return
	}
	seen[ref] = true

	if old, ok := strings.CutPrefix(ref.Ref, componentPrefix); ok {
		if renamed, hit := renames[old]; hit {
			ref.Ref = componentPrefix + renamed
		}
	}
	s := ref.Value
	if s == nil {
		return
	}
	for _, p := range s.Properties {
		rewriteRefs(p, renames, seen)
	}
	rewriteRefs(s.Items, renames, seen)
	if s.AdditionalProperties.Schema != nil {
		rewriteRefs(s.AdditionalProperties.Schema, renames, seen)
	}
	for _, sub := range s.AllOf {
		rewriteRefs(sub, renames, seen)
	}
	for _, sub := range s.AnyOf {
		rewriteRefs(sub, renames, seen)
	}
	for _, sub := range s.OneOf {
		rewriteRefs(sub, renames, seen)
	}
	rewriteRefs(s.Not, renames, seen)
}

// liftEnums promotes named non-struct types with value rules (string enums
// and the like) into component schemas, replacing the inline property schema
// with a $ref. The generator only exports struct components on its own.
func (sr *schemaRegistry) liftEnums(t reflect.Type, schema *openapi3.Schema, scratch openapi3.Schemas, done map[reflect.Type]bool) error {
	t = derefType(t)
	if t.Kind() != reflect.Struct || t == timeType || done[t] {
		return nil
	}
	done[t] = true
	if schema == nil {
		return nil
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		prop, ok := schema.Properties[fieldKey(sf)]
		if !ok {
			continue
		}

		ft := derefType(sf.Type)
		target := prop
		if ft.Kind() == reflect.Slice || ft.Kind() == reflect.Array {
			ft = derefType(ft.Elem())
			if prop.Value == nil || prop.Value.Items == nil {
				continue
			}
			target = prop.Value.Items
		}

		switch {
		case isEnumType(ft):
			name, err := sr.enumComponent(ft, scratch)
			if err != nil {
				return err
			}
			target.Ref = componentPrefix + name
		case ft.Kind() == reflect.Struct:
			// Component schemas share the property's Value object, so
			// lifting here updates the exported component too.
			if err := sr.liftEnums(ft, target.Value, scratch, done); err != nil {
				return err
			}
		}
	}
	return nil
}

// isEnumType reports whether t is a named non-struct type that documents
// itself through value rules.
func isEnumType(t reflect.Type) bool {
	if t.Name() == "" || t.Kind() == reflect.Struct {
		return false
	}
	_, ok := reflect.New(t).Interface().(validate.ValueRuler)
	return ok
}

// enumComponent exports the schema of a named scalar type into scratch and
// returns its component name.
func (sr *schemaRegistry) enumComponent(t reflect.Type, scratch openapi3.Schemas) (string, error) {
	name := t.Name()
	if _, exists := scratch[name]; exists {
		return name, nil
	}
	if existing, exists := sr.components[name]; exists {
		ref, err := validate.NewSchemaRefForType(t, nil)
		if err != nil {
			return "", fmt.Errorf("schema for %s: %w", t, err)
		}
		if schemasEqual(existing, ref) {
			return name, nil
		}
		scratch[name] = ref
		return name, nil
	}
	ref, err := validate.NewSchemaRefForType(t, nil)
	if err != nil {
		return "", fmt.Errorf("schema for %s: %w", t, err)
	}
	scratch[name] = ref
	return name, nil
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
