// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2026 Canonical Ltd
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package value implements the probing engine's result store: an
// ordered list of NAME=value pairs, with chain-scoped reset so a decoder
// that is overridden by the wiper heuristic can discard exactly the
// values it contributed without touching other chains' results.
package value

// Value is one emitted NAME=value pair. Chain records which chain
// produced it, needed for chain-scoped reset.
type Value struct {
	Name  string
	Data  []byte
	Chain string
}

// String returns Data as a string, trimming the trailing NUL padding
// decoders commonly emit for fixed-width on-disk fields.
func (v *Value) String() string {
	n := len(v.Data)
	for n > 0 && v.Data[n-1] == 0 {
		n--
	}
	return string(v.Data[:n])
}

// Store is an ordered, lookup-by-name collection of Values, scoped per
// chain for selective reset.
type Store struct {
	values []*Value
}

// Append adds a new value, overwriting a prior value of the same name
// emitted by the same chain (decoders sometimes re-emit a refined
// value after a first coarse pass).
func (s *Store) Append(chain, name string, data []byte) {
	for _, v := range s.values {
		if v.Chain == chain && v.Name == name {
			v.Data = data
			return
		}
	}
	s.values = append(s.values, &Value{Name: name, Data: data, Chain: chain})
}

// AppendString is a convenience wrapper around Append for text values.
func (s *Store) AppendString(chain, name, data string) {
	s.Append(chain, name, []byte(data))
}

// Lookup returns the value with the given name, searching all chains
// from the most recently inserted value backwards, so the value
// inserted last wins (the most specific chain tends to be appended
// last).
func (s *Store) Lookup(name string) (*Value, bool) {
	for i := len(s.values) - 1; i >= 0; i-- {
		if s.values[i].Name == name {
			return s.values[i], true
		}
	}
	return nil, false
}

// All returns every stored value, in insertion order.
func (s *Store) All() []*Value {
	return append([]*Value(nil), s.values...)
}

// ResetChain discards every value contributed by the named chain. Used
// both for ordinary chain re-probing and for the wiper heuristic, which
// erases a later chain's values when the magic it matched lies inside a
// region an earlier decoder declared wiped.
func (s *Store) ResetChain(chain string) {
	kept := s.values[:0]
	for _, v := range s.values {
		if v.Chain != chain {
			kept = append(kept, v)
		}
	}
	s.values = kept
}

// Reset discards every stored value.
func (s *Store) Reset() {
	s.values = nil
}

// Len reports how many values are stored.
func (s *Store) Len() int {
	return len(s.values)
}
