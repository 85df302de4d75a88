/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package shim

import "slices"

// OrderedMap is a string-keyed map that remembers insertion order.
// Deleting a key and setting it again moves it to the end.
type OrderedMap[V any] struct {
	keys   []string
	values map[string]V
}

// NewOrderedMap creates an empty OrderedMap.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{values: make(map[string]V)}
}

func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap[V]) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

func (m *OrderedMap[V]) Set(key string, value V) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key and reports whether it was present.
func (m *OrderedMap[V]) Delete(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
	return true
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	return slices.Clone(m.keys)
}

func (m *OrderedMap[V]) Len() int {
	return len(m.keys)
}

// MergedView reads two maps as one. The override map wins on reads.
// Writes and deletes go to the map that owns the key, override first; new
// keys are written to base. Keys lists base keys the override does not
// have, then the override keys, each in insertion order.
//
// The generated dntGlobalThis proxy has the same semantics over globalThis
// (base) and the shim exports (override).
type MergedView[V any] struct {
	base     *OrderedMap[V]
	override *OrderedMap[V]
}

// NewMergedView creates a view over base and override. Both maps stay
// owned by the caller and observe every write made through the view.
func NewMergedView[V any](base, override *OrderedMap[V]) *MergedView[V] {
	return &MergedView[V]{base: base, override: override}
}

func (v *MergedView[V]) Get(key string) (V, bool) {
	if val, ok := v.override.Get(key); ok {
		return val, true
	}
	return v.base.Get(key)
}

func (v *MergedView[V]) Has(key string) bool {
	return v.override.Has(key) || v.base.Has(key)
}

func (v *MergedView[V]) Set(key string, value V) {
	if v.override.Has(key) {
		v.override.Set(key, value)
		return
	}
	v.base.Set(key, value)
}

// Delete removes key from the map that owns it, trying the override first.
func (v *MergedView[V]) Delete(key string) bool {
	if v.override.Delete(key) {
		return true
	}
	return v.base.Delete(key)
}

// Overrides reports whether the override map owns key.
func (v *MergedView[V]) Overrides(key string) bool {
	return v.override.Has(key)
}

func (v *MergedView[V]) Keys() []string {
	keys := make([]string, 0, v.base.Len()+v.override.Len())
	for _, k := range v.base.keys {
		if !v.override.Has(k) {
			keys = append(keys, k)
		}
	}
	return append(keys, v.override.keys...)
}
