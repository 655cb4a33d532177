// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package nuclear

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownNodeType is returned when a node's "type" field is not a
// nuclear kind.
var ErrUnknownNodeType = errors.New("unknown nuclear node type")

// AST is the grammar service envelope: {"result": node}.
type AST struct {
	Result Node
}

// MarshalJSON implements json.Marshaler.
func (a AST) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Result Node `json:"result"`
	}{a.Result})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AST) UnmarshalJSON(data []byte) error {
	var wire struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decoding nuclear AST: %w", err)
	}
	n, err := Decode(wire.Result)
	if err != nil {
		return err
	}
	a.Result = n
	return nil
}

// Decode parses one node in the grammar service's wire format. JSON null
// decodes to a nil Node. A term without a coefficient gets 1.
func Decode(data []byte) (Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decoding nuclear node: %w", err)
	}

	switch head.Type {
	case KindError:
		var w errorWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding error node: %w", err)
		}
		return &ErrorNode{Message: w.Value, Expected: w.Expected, Loc: w.Loc}, nil

	case KindParticle:
		var w particleWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding particle: %w", err)
		}
		return &Particle{Species: w.Particle, Mass: w.Mass, Atomic: w.Atomic}, nil

	case KindIsotope:
		var w isotopeWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding isotope: %w", err)
		}
		return &Isotope{Element: w.Element, Mass: w.Mass, Atomic: w.Atomic}, nil

	case KindTerm:
		var w termWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding term: %w", err)
		}
		value, err := Decode(w.Value)
		if err != nil {
			return nil, err
		}
		coeff := 1
		if w.Coeff != nil {
			coeff = *w.Coeff
		}
		return &Term{Value: value, Coeff: coeff, IsParticle: w.IsParticle}, nil

	case KindExpression:
		var w exprWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding expression: %w", err)
		}
		e := &Expression{}
		var err error
		if e.Term, err = decodeTerm(w.Term); err != nil {
			return nil, err
		}
		if e.Rest, err = Decode(w.Rest); err != nil {
			return nil, err
		}
		if w.Terms != nil {
			e.Terms = make([]*Term, 0, len(w.Terms))
			for _, raw := range w.Terms {
				t, err := decodeTerm(raw)
				if err != nil {
					return nil, err
				}
				e.Terms = append(e.Terms, t)
			}
		}
		return e, nil

	case KindStatement:
		var w statementWire
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("decoding statement: %w", err)
		}
		s := &Statement{}
		var err error
		if s.Left, err = Decode(w.Left); err != nil {
			return nil, err
		}
		if s.Right, err = Decode(w.Right); err != nil {
			return nil, err
		}
		return s, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, head.Type)
}

func decodeTerm(data json.RawMessage) (*Term, error) {
	n, err := Decode(data)
	if err != nil || n == nil {
		return nil, err
	}
	t, ok := n.(*Term)
	if !ok {
		return nil, fmt.Errorf("expression: unexpected node type %q", n.Kind())
	}
	return t, nil
}

type errorWire struct {
	Type     Kind     `json:"type"`
	Value    string   `json:"value"`
	Expected []string `json:"expected"`
	Loc      [2]int   `json:"loc"`
}

type particleWire struct {
	Type     Kind    `json:"type"`
	Particle Species `json:"particle"`
	Mass     *int    `json:"mass,omitempty"`
	Atomic   *int    `json:"atomic,omitempty"`
}

type isotopeWire struct {
	Type    Kind   `json:"type"`
	Element string `json:"element"`
	Mass    *int   `json:"mass,omitempty"`
	Atomic  *int   `json:"atomic,omitempty"`
}

type termWire struct {
	Type       Kind            `json:"type"`
	Value      json.RawMessage `json:"value"`
	Coeff      *int            `json:"coeff"`
	IsParticle bool            `json:"isParticle"`
}

type exprWire struct {
	Type  Kind              `json:"type"`
	Term  json.RawMessage   `json:"term,omitempty"`
	Rest  json.RawMessage   `json:"rest,omitempty"`
	Terms []json.RawMessage `json:"terms,omitempty"`
}

type statementWire struct {
	Type  Kind            `json:"type"`
	Left  json.RawMessage `json:"left"`
	Right json.RawMessage `json:"right"`
}

// MarshalJSON implements json.Marshaler.
func (e *ErrorNode) MarshalJSON() ([]byte, error) {
	expected := e.Expected
	if expected == nil {
		expected = []string{}
	}
	return json.Marshal(errorWire{Type: KindError, Value: e.Message, Expected: expected, Loc: e.Loc})
}

// MarshalJSON implements json.Marshaler.
func (p *Particle) MarshalJSON() ([]byte, error) {
	return json.Marshal(particleWire{Type: KindParticle, Particle: p.Species, Mass: p.Mass, Atomic: p.Atomic})
}

// MarshalJSON implements json.Marshaler.
func (i *Isotope) MarshalJSON() ([]byte, error) {
	return json.Marshal(isotopeWire{Type: KindIsotope, Element: i.Element, Mass: i.Mass, Atomic: i.Atomic})
}

// MarshalJSON implements json.Marshaler.
func (t *Term) MarshalJSON() ([]byte, error) {
	value, err := encodeNode(t.Value)
	if err != nil {
		return nil, err
	}
	coeff := t.Coeff
	return json.Marshal(termWire{Type: KindTerm, Value: value, Coeff: &coeff, IsParticle: t.IsParticle})
}

// MarshalJSON implements json.Marshaler.
func (e *Expression) MarshalJSON() ([]byte, error) {
	w := exprWire{Type: KindExpression}
	var err error
	if e.Term != nil {
		if w.Term, err = json.Marshal(e.Term); err != nil {
			return nil, err
		}
	}
	if e.Rest != nil {
		if w.Rest, err = json.Marshal(e.Rest); err != nil {
			return nil, err
		}
	}
	for _, t := range e.Terms {
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		w.Terms = append(w.Terms, raw)
	}
	return json.Marshal(w)
}

// MarshalJSON implements json.Marshaler.
func (s *Statement) MarshalJSON() ([]byte, error) {
	left, err := encodeNode(s.Left)
	if err != nil {
		return nil, err
	}
	right, err := encodeNode(s.Right)
	if err != nil {
		return nil, err
	}
	return json.Marshal(statementWire{Type: KindStatement, Left: left, Right: right})
}

func encodeNode(n Node) (json.RawMessage, error) {
	if n == nil {
		return json.RawMessage("null"), nil
	}
	return json.Marshal(n)
}
