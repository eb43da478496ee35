package binder

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/lastrada/lightweight-go/dialect"
)

// Registry maps a Go reflect.Type to the Binder responsible for it,
// the substitute for the original's closed-set template dispatch
// (spec.md §9: "a registry keyed by type, populated once at
// startup/first use"). One Registry is built per backend since
// dateTimeBinder varies its wire behavior by dialect.
type Registry struct {
	backend  dialect.Name
	mu       sync.RWMutex
	byType   map[reflect.Type]Binder
	fallback map[reflect.Type]func(size int, precision, scale uint8) Binder
}

var (
	typeString  = reflect.TypeOf("")
	typeBytes   = reflect.TypeOf([]byte(nil))
	typeTime    = reflect.TypeOf(time.Time{})
	typeGUID    = reflect.TypeOf(GUID{})
	typeNumeric = reflect.TypeOf(Numeric{})
	typeVariant = reflect.TypeOf(Variant{})
)

// NewRegistry builds the default registry for a backend: string and
// []byte at their default (unbounded) size, time.Time as Timestamp,
// GUID, and Numeric as NUMERIC(38,10). No other Go type (bool, the
// integer and float types included) has a default binder, so For
// returns an error for it. Callers needing a specific VARCHAR(n)/NUMERIC(p,s)
// width use Sized/Decimal to get a binder for that declaration.
func NewRegistry(backend dialect.Name) *Registry {
	r := &Registry{backend: backend, byType: make(map[reflect.Type]Binder)}
	r.byType[typeString] = stringBinder{Backend: backend, Size: 0}
	r.byType[typeBytes] = binaryBinder{Size: 0}
	r.byType[typeTime] = dateTimeBinder{Kind: KindTimestamp, Backend: backend}
	r.byType[typeGUID] = guidBinder{}
	r.byType[typeNumeric] = numericBinder{Precision: 38, Scale: 10, Backend: backend}
	return r
}

// For returns the Binder registered for the exact Go type of value, or
// an error if none is registered. The error is a plain error naming the
// type, not a *sqlerr.Error.
func (r *Registry) For(value any) (Binder, error) {
	t := reflect.TypeOf(value)
	r.mu.RLock()
	b, ok := r.byType[t]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("binder: no Binder registered for %s", t)
	}
	return b, nil
}

// Register installs a Binder for a concrete Go type, overriding any
// default. Used to install a fixed-width string/binary/decimal binder
// for a specific column declaration.
func (r *Registry) Register(t reflect.Type, b Binder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[t] = b
}

// Sized returns a Binder bound to a specific VARCHAR(n)/CHAR(n) width,
// without installing it into the registry (column-level overrides don't
// share state across columns of the same Go type but different widths).
func (r *Registry) Sized(size int, fixed, national bool) Binder {
	return stringBinder{Backend: r.backend, Size: size, Fixed: fixed, National: national}
}

// Decimal returns a Binder bound to a specific (precision, scale) pair.
func (r *Registry) Decimal(precision, scale uint8) Binder {
	return numericBinder{Precision: precision, Scale: scale, Backend: r.backend}
}

// DateKind returns a Binder for the Date or Time kind specifically
// (the default registry binds time.Time to KindTimestamp).
func (r *Registry) DateKind(k Kind) Binder {
	return dateTimeBinder{Kind: k, Backend: r.backend}
}

// Backend returns the dialect this registry was built for.
func (r *Registry) Backend() dialect.Name { return r.backend }
