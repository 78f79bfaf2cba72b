package store

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// MatchMode selects how a query value is compared with a stored field.
type MatchMode int

const (
	// MatchEqual requires the query value to equal the field value.
	MatchEqual MatchMode = iota
	// MatchMembership applies to list fields. A single element matches when
	// the list contains it; a whole list matches only when it equals the
	// field element by element.
	MatchMembership
	// MatchNone marks a field that can be patched but never queried.
	MatchNone
)

func (m MatchMode) String() string {
	switch m {
	case MatchEqual:
		return "equal"
	case MatchMembership:
		return "membership"
	case MatchNone:
		return "none"
	}
	return fmt.Sprintf("MatchMode(%d)", int(m))
}

var (
	// ErrUnknownField is returned when criteria name a field the schema does
	// not declare, or one that cannot be queried.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidValue is returned when a criteria or patch value has a type
	// the field does not accept.
	ErrInvalidValue = errors.New("invalid value")
)

// Criteria maps field names to query values. A nil value, or a nil pointer,
// imposes no constraint.
type Criteria map[string]any

// Patch maps field names to new values. Nil values and names the schema does
// not declare are ignored.
type Patch map[string]any

// Predicate reports whether an entity satisfies a compiled Criteria.
type Predicate[T any] func(*T) bool

// Field describes one named attribute of T: how queries match it and how a
// patch assigns it. Build fields with Scalar, List or AssignOnly.
type Field[T any] struct {
	name string
	mode MatchMode
	// match turns a query value into a predicate. ok is false for nil values.
	match func(v any) (pred Predicate[T], ok bool, err error)
	// assign turns a patch value into a mutation. nil means read-only.
	assign func(v any) (apply func(*T), ok bool, err error)
}

// Name returns the field name.
func (f Field[T]) Name() string { return f.name }

// Mode returns the match strategy of the field.
func (f Field[T]) Mode() MatchMode { return f.mode }

// Scalar declares a field compared by equality. Query and patch values may be
// given as V or *V.
func Scalar[T any, V comparable](name string, get func(*T) V, set func(*T, V)) Field[T] {
	f := Field[T]{name: name, mode: MatchEqual}
	f.match = func(v any) (Predicate[T], bool, error) {
		want, ok, err := scalarOf[V](name, v)
		if err != nil || !ok {
			return nil, ok, err
		}
		return func(e *T) bool { return get(e) == want }, true, nil
	}
	if set != nil {
		f.assign = func(v any) (func(*T), bool, error) {
			val, ok, err := scalarOf[V](name, v)
			if err != nil || !ok {
				return nil, ok, err
			}
			return func(e *T) { set(e, val) }, true, nil
		}
	}
	return f
}

// List declares a slice-valued field. With MatchMembership a query value of
// type V tests whether the list contains it; a []V query value always tests
// equality of the whole list. With MatchEqual only []V is accepted.
func List[T any, V comparable](name string, mode MatchMode, get func(*T) []V, set func(*T, []V)) Field[T] {
	f := Field[T]{name: name, mode: mode}
	f.match = func(v any) (Predicate[T], bool, error) {
		switch x := v.(type) {
		case nil:
			return nil, false, nil
		case []V:
			if x == nil {
				return nil, false, nil
			}
			return func(e *T) bool { return slices.Equal(get(e), x) }, true, nil
		case *[]V:
			if x == nil {
				return nil, false, nil
			}
			want := *x
			return func(e *T) bool { return slices.Equal(get(e), want) }, true, nil
		}
		if mode != MatchMembership {
			return nil, false, fmt.Errorf("%w: %s does not accept %T", ErrInvalidValue, name, v)
		}
		elem, ok, err := scalarOf[V](name, v)
		if err != nil || !ok {
			return nil, ok, err
		}
		return func(e *T) bool { return slices.Contains(get(e), elem) }, true, nil
	}
	if set != nil {
		f.assign = func(v any) (func(*T), bool, error) {
			var val []V
			switch x := v.(type) {
			case nil:
				return nil, false, nil
			case []V:
				if x == nil {
					return nil, false, nil
				}
				val = x
			case *[]V:
				if x == nil {
					return nil, false, nil
				}
				val = *x
			default:
				return nil, false, fmt.Errorf("%w: %s does not accept %T", ErrInvalidValue, name, v)
			}
			val = slices.Clone(val)
			return func(e *T) { set(e, val) }, true, nil
		}
	}
	return f
}

// AssignOnly declares a field that patches can set but queries cannot name.
func AssignOnly[T any, V any](name string, set func(*T, V)) Field[T] {
	return Field[T]{
		name: name,
		mode: MatchNone,
		assign: func(v any) (func(*T), bool, error) {
			val, ok, err := scalarOf[V](name, v)
			if err != nil || !ok {
				return nil, ok, err
			}
			return func(e *T) { set(e, val) }, true, nil
		},
	}
}

// scalarOf unwraps v into a V. ok is false when v is nil or a nil *V.
func scalarOf[V any](field string, v any) (val V, ok bool, err error) {
	switch x := v.(type) {
	case nil:
		return val, false, nil
	case V:
		return x, true, nil
	case *V:
		if x == nil {
			return val, false, nil
		}
		return *x, true, nil
	}
	return val, false, fmt.Errorf("%w: %s does not accept %T", ErrInvalidValue, field, v)
}

// Schema is the closed field table of one entity type.
type Schema[T any] struct {
	entity string
	id     func(*T) *uint64
	fields map[string]Field[T]
	clone  func(T) T
}

// IDField is the name under which every schema exposes the entity id.
const IDField = "id"

// NewSchema declares the fields of T. The id field is added automatically,
// matches by equality and is never assignable through a patch. It panics on
// duplicate or empty field names.
func NewSchema[T any](entity string, id func(*T) *uint64, fields ...Field[T]) *Schema[T] {
	s := &Schema[T]{
		entity: entity,
		id:     id,
		fields: make(map[string]Field[T], len(fields)+1),
	}
	s.fields[IDField] = Scalar[T, uint64](IDField, func(e *T) uint64 { return *id(e) }, nil)
	for _, f := range fields {
		if f.name == "" {
			panic("store: empty field name in schema " + entity)
		}
		if _, dup := s.fields[f.name]; dup {
			panic("store: duplicate field " + entity + "." + f.name)
		}
		s.fields[f.name] = f
	}
	return s
}

// WithClone installs a deep-copy function, needed when T holds slices or
// maps that callers must not share with the store.
func (s *Schema[T]) WithClone(fn func(T) T) *Schema[T] {
	s.clone = fn
	return s
}

// Entity returns the entity name used in error messages.
func (s *Schema[T]) Entity() string { return s.entity }

// Fields returns the declared field names in sorted order.
func (s *Schema[T]) Fields() []string {
	names := make([]string, 0, len(s.fields))
	for n := range s.fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Field returns the declaration of name.
func (s *Schema[T]) Field(name string) (Field[T], bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Compile validates c against the field table and returns a predicate that
// is true when every constrained field matches. Empty criteria match all.
func (s *Schema[T]) Compile(c Criteria) (Predicate[T], error) {
	preds := make([]Predicate[T], 0, len(c))
	for name, v := range c {
		f, ok := s.fields[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, s.entity, name)
		}
		if f.mode == MatchNone {
			return nil, fmt.Errorf("%w: %s.%s is not queryable", ErrUnknownField, s.entity, name)
		}
		p, ok, err := f.match(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.entity, err)
		}
		if ok {
			preds = append(preds, p)
		}
	}
	return func(e *T) bool {
		for _, p := range preds {
			if !p(e) {
				return false
			}
		}
		return true
	}, nil
}

// compilePatch validates every value of p up front so that applying the
// result cannot fail halfway.
func (s *Schema[T]) compilePatch(p Patch) (func(*T), error) {
	var steps []func(*T)
	for name, v := range p {
		f, ok := s.fields[name]
		if !ok || f.assign == nil {
			continue
		}
		apply, ok, err := f.assign(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.entity, err)
		}
		if ok {
			steps = append(steps, apply)
		}
	}
	return func(e *T) {
		for _, step := range steps {
			step(e)
		}
	}, nil
}

func (s *Schema[T]) copy(v T) T {
	if s.clone != nil {
		return s.clone(v)
	}
	return v
}
